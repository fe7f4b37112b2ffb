package extractors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/brainhub/internal/extractors"
)

func TestIsImage(t *testing.T) {
	cases := map[string]bool{
		"/api/file/a/photo.jpg": true,
		"/api/file/a/photo.JPEG": true,
		"/api/file/a/scan.png": true,
		"/api/file/a/doc.pdf": false,
		"/api/file/a/notes.txt": false,
		"/api/file/a/sheet.csv": false,
	}
	for path, want := range cases {
		assert.Equal(t, want, extractors.IsImage(path), path)
	}
}
