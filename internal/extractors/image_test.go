package extractors_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
	"github.com/jonesrussell/north-cloud/brainhub/internal/extractors"
)

type fakeLLM struct{}

func (fakeLLM) Complete(ctx context.Context, messages []aiprovider.ChatMessage) (aiprovider.ChatResult, error) {
	return aiprovider.ChatResult{}, nil
}

func (fakeLLM) Stream(ctx context.Context, messages []aiprovider.ChatMessage) (<-chan aiprovider.ChatChunk, error) {
	return nil, nil
}

type fakeVisionLLM struct {
	fakeLLM
	gotPrompt string
}

func (f *fakeVisionLLM) Caption(ctx context.Context, jpeg []byte, prompt string) (string, error) {
	f.gotPrompt = prompt
	return "a red square", nil
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageExtractor_Caption_NonVisionModelReturnsSentinel(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.UploadFile(context.Background(), "/api/file/x.png", samplePNG(t), "image/png"))

	ext := extractors.NewImageExtractor(store, fakeLLM{})
	_, err := ext.Caption(context.Background(), "/api/file/x.png")
	assert.True(t, errors.Is(err, aiprovider.ErrImageNotSupported))
}

func TestImageExtractor_Caption_ResizesAndCaptions(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.UploadFile(context.Background(), "/api/file/x.png", samplePNG(t), "image/png"))

	vision := &fakeVisionLLM{}
	ext := extractors.NewImageExtractor(store, vision)
	caption, err := ext.Caption(context.Background(), "/api/file/x.png")
	require.NoError(t, err)
	assert.Equal(t, "a red square", caption)
	assert.Contains(t, vision.gotPrompt, "Describe the image")
}
