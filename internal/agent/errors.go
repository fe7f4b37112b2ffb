package agent

import platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"

func errUnknownTool(name string) error {
	return platerrors.New(platerrors.CapabilityUnsupported, "unknown tool: "+name)
}
