package extractors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/extractors"
)

type fakeAudioModel struct {
	gotHint string
}

func (f *fakeAudioModel) Transcribe(ctx context.Context, audio []byte, extensionHint string) (string, error) {
	f.gotHint = extensionHint
	return "transcribed text", nil
}

func TestAudioExtractor_Transcribe(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.UploadFile(ctx, "/api/file/voice.m4a", []byte("fake-audio"), "audio/mp4"))

	model := &fakeAudioModel{}
	ext := extractors.NewAudioExtractor(store, model)
	text, err := ext.Transcribe(ctx, "/api/file/voice.m4a")
	require.NoError(t, err)
	assert.Equal(t, "transcribed text", text)
	assert.Equal(t, "m4a", model.gotHint)
}
