package capture

import (
	"context"
)

type CaptureOptions struct {
	MaskSelectors []string          `yaml:"mask_selectors"`
	Headers       map[string]string `yaml:"headers"`
}

type Capturer interface {
	// Capture returns a PNG screenshot of url.
	Capture(ctx context.Context, url string, options CaptureOptions) ([]byte, error)
}
