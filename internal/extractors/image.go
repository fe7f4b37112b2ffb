package extractors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"

	"github.com/jonesrussell/north-cloud/brainhub/internal/aiprovider"
	"github.com/jonesrussell/north-cloud/brainhub/internal/storage"
)

const (
	maxImageEdge = 1024
	jpegQuality = 70
	captionPrompt = "Describe the image in detail, and extract all the text in the image."
)

// ImageExtractor captions an image via the configured vision model: resized
// to max edge 1024px, re-encoded as JPEG quality 70, flattened onto a white
// background so transparent source images don't confuse a vendor that
// assumes an opaque JPEG.
type ImageExtractor struct {
	store storage.BlobStore
	model aiprovider.LLM
}

// NewImageExtractor constructs an ImageExtractor over store and model.
func NewImageExtractor(store storage.BlobStore, model aiprovider.LLM) *ImageExtractor {
	return &ImageExtractor{store: store, model: model}
}

// Caption returns the vision model's description of the image at path, or
// aiprovider.ErrImageNotSupported if the configured model has no vision
// capability.
func (e *ImageExtractor) Caption(ctx context.Context, path string) (string, error) {
	vision, ok := e.model.(aiprovider.VisionModel)
	if !ok {
		return "", aiprovider.ErrImageNotSupported
	}

	data, err := e.store.GetFileBuffer(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extractors: read image: %w", err)
	}

	jpegBytes, err := prepareImage(data)
	if err != nil {
		return "", fmt.Errorf("extractors: prepare image: %w", err)
	}

	caption, err := vision.Caption(ctx, jpegBytes, captionPrompt)
	if err != nil {
		if errors.Is(err, aiprovider.ErrImageNotSupported) {
			return "", aiprovider.ErrImageNotSupported
		}
		return "", fmt.Errorf("extractors: vision caption: %w", err)
	}
	return caption, nil
}

// prepareImage decodes src, resizes it so neither edge exceeds
// maxImageEdge, flattens it onto a white background, and re-encodes it as
// a quality-70 JPEG.
func prepareImage(src []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := imaging.Fit(img, maxImageEdge, maxImageEdge, imaging.Lanczos)

	bounds := resized.Bounds()
	flattened := image.NewRGBA(bounds)
	draw.Draw(flattened, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(flattened, bounds, resized, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flattened, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
