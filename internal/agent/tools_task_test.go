package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

type stubTaskManager struct {
	created *domain.UserScheduledTask
	deletedID int64
	deletedName string
	listOwnerID int64
	list []*domain.UserScheduledTask
	createErr error
	deleteErr error
	deleteByNameErr error
}

func (s *stubTaskManager) Create(_ context.Context, ownerID int64, name, prompt, cron string) (*domain.UserScheduledTask, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = &domain.UserScheduledTask{ID: 11, OwnerID: ownerID, Name: name, Prompt: prompt, Cron: cron, Enabled: true}
	return s.created, nil
}

func (s *stubTaskManager) Delete(_ context.Context, _, taskID int64) error {
	s.deletedID = taskID
	return s.deleteErr
}

func (s *stubTaskManager) DeleteByName(_ context.Context, _ int64, name string) error {
	s.deletedName = name
	return s.deleteByNameErr
}

func (s *stubTaskManager) List(_ context.Context, ownerID int64) ([]*domain.UserScheduledTask, error) {
	s.listOwnerID = ownerID
	return s.list, nil
}

func TestCreateScheduledTaskTool_Execute(t *testing.T) {
	tasks := &stubTaskManager{}
	tool := NewCreateScheduledTaskTool(tasks)

	args, _ := json.Marshal(map[string]any{"name": "daily digest", "prompt": "summarize today", "cron": "0 9 * * *"})
	out, err := tool.Execute(context.Background(), Principal{AccountID: 4}, args)
	require.NoError(t, err)
	assert.Contains(t, out, "created scheduled task 11")
	require.NotNil(t, tasks.created)
	assert.Equal(t, int64(4), tasks.created.OwnerID)
}

func TestDeleteScheduledTaskTool_ByID(t *testing.T) {
	tasks := &stubTaskManager{}
	tool := NewDeleteScheduledTaskTool(tasks)

	args, _ := json.Marshal(map[string]any{"taskId": 9})
	out, err := tool.Execute(context.Background(), Principal{AccountID: 4}, args)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted scheduled task 9")
	assert.Equal(t, int64(9), tasks.deletedID)
}

func TestDeleteScheduledTaskTool_ByName(t *testing.T) {
	tasks := &stubTaskManager{}
	tool := NewDeleteScheduledTaskTool(tasks)

	args, _ := json.Marshal(map[string]any{"taskName": "daily digest"})
	out, err := tool.Execute(context.Background(), Principal{AccountID: 4}, args)
	require.NoError(t, err)
	assert.Contains(t, out, "daily digest")
	assert.Equal(t, "daily digest", tasks.deletedName)
}

func TestDeleteScheduledTaskTool_RequiresIdentifier(t *testing.T) {
	tasks := &stubTaskManager{}
	tool := NewDeleteScheduledTaskTool(tasks)

	args, _ := json.Marshal(map[string]any{})
	_, err := tool.Execute(context.Background(), Principal{AccountID: 4}, args)
	assert.Error(t, err)
}

func TestListScheduledTasksTool_Execute(t *testing.T) {
	tasks := &stubTaskManager{list: []*domain.UserScheduledTask{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}}
	tool := NewListScheduledTasksTool(tasks)

	out, err := tool.Execute(context.Background(), Principal{AccountID: 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), tasks.listOwnerID)
	assert.Contains(t, out, `"name":"a"`)
	assert.Contains(t, out, `"name":"b"`)
}
