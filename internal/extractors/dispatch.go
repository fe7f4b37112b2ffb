package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true,
}

// IsImage reports whether path's extension should be routed to the vision
// captioner rather than the document extractor ( step 2: "Branch on
// extension: image → vision-caption; otherwise → document extract").
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Attachment dispatches path to the image captioner or the document
// extractor depending on its extension, returning the text to chunk and
// embed as attachment content. A model/provider that cannot accept image
// input surfaces aiprovider.ErrImageNotSupported unwrapped, so a caller can
// tell it apart from other extraction failures with errors.Is.
type Attachment struct {
	Documents *DocumentExtractor
	Images *ImageExtractor
}

// NewAttachmentExtractor composes a document and image extractor over the
// same storage adapter into the single entry point step 2 describes.
func NewAttachmentExtractor(documents *DocumentExtractor, images *ImageExtractor) *Attachment {
	return &Attachment{Documents: documents, Images: images}
}

func (a *Attachment) Extract(ctx context.Context, path string) (string, error) {
	if IsImage(path) {
		return a.Images.Caption(ctx, path)
	}
	text, err := a.Documents.Extract(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extractors: document extract: %w", err)
	}
	return text, nil
}
