package scheduler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/domain"
)

type samplePayload struct {
	Foo string `json:"foo"`
}

func TestDecodeOrDefault_EmptyDataReturnsDefault(t *testing.T) {
	job := &domain.JobRow{}
	got, err := decodeOrDefault(job, samplePayload{Foo: "default"})
	require.NoError(t, err)
	assert.Equal(t, "default", got.Foo)
}

func TestDecodeOrDefault_NullDataReturnsDefault(t *testing.T) {
	job := &domain.JobRow{Data: json.RawMessage("null")}
	got, err := decodeOrDefault(job, samplePayload{Foo: "default"})
	require.NoError(t, err)
	assert.Equal(t, "default", got.Foo)
}

func TestDecodeOrDefault_DecodesPresentData(t *testing.T) {
	job := &domain.JobRow{Data: json.RawMessage(`{"foo":"explicit"}`)}
	got, err := decodeOrDefault(job, samplePayload{Foo: "default"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", got.Foo)
}
