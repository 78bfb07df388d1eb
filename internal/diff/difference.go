package diff

import (
	"fmt"
	"image"
)

type Kind string

const (
	KindNone         Kind = "match"
	KindMissingFile  Kind = "missing-file"
	KindLoadError    Kind = "load-error"
	KindSizeMismatch Kind = "size-mismatch"
	KindContent      Kind = "content"
)

type ImageInfo struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

func (i ImageInfo) String() string {
	return fmt.Sprintf("%dx%d", i.Width, i.Height)
}

func (i ImageInfo) Pixels() uint64 {
	return uint64(i.Width) * uint64(i.Height)
}

// ImageInfoResult is one of InfoLoaded, InfoMissing or InfoError.
type ImageInfoResult interface {
	isImageInfoResult()
}

type InfoLoaded struct {
	Info ImageInfo
}

type InfoMissing struct{}

// InfoError is recorded when the file exists but could not be decoded.
type InfoError struct {
	Message string
}

func (InfoLoaded) isImageInfoResult()  {}
func (InfoMissing) isImageInfoResult() {}
func (InfoError) isImageInfoResult()   {}

// Info returns the loaded image info, if any.
func Info(r ImageInfoResult) (ImageInfo, bool) {
	loaded, ok := r.(InfoLoaded)
	return loaded.Info, ok
}

func IsMissing(r ImageInfoResult) bool {
	_, ok := r.(InfoMissing)
	return ok
}

// Difference is one of None, MissingFile, LoadError, SizeMismatch or Content.
type Difference interface {
	Kind() Kind
}

type None struct{}

type MissingFile struct{}

type LoadError struct{}

type SizeMismatch struct{}

// Content is only produced for loaded images of equal size with at least
// one differing pixel.
type Content struct {
	DifferentPixels uint64
	DistanceSum     uint64
	Image           *image.RGBA
}

func (None) Kind() Kind         { return KindNone }
func (MissingFile) Kind() Kind  { return KindMissingFile }
func (LoadError) Kind() Kind    { return KindLoadError }
func (SizeMismatch) Kind() Kind { return KindSizeMismatch }
func (Content) Kind() Kind      { return KindContent }
