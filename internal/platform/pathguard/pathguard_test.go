package pathguard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/platform/pathguard"
)

func TestResolveWithin_AllowsNestedPath(t *testing.T) {
	resolved, err := pathguard.ResolveWithin("/data/attachments", "2026/07/photo.jpg")
	require.NoError(t, err)
	assert.Contains(t, resolved, "attachments")
	assert.Contains(t, resolved, "photo.jpg")
}

func TestResolveWithin_RejectsTraversal(t *testing.T) {
	_, err := pathguard.ResolveWithin("/data/attachments", "../../etc/passwd")
	assert.ErrorIs(t, err, pathguard.ErrPathEscapesBase)
}

func TestResolveWithin_RejectsEmpty(t *testing.T) {
	_, err := pathguard.ResolveWithin("/data/attachments", "")
	assert.ErrorIs(t, err, pathguard.ErrPathEscapesBase)
}
