package diff

import (
	"context"
	"image"
	_ "image/png"
	"os"
	"runtime"
	diffimage "snapshot-compare/internal/diff/image"
	"snapshot-compare/internal/pair"

	"golang.org/x/sync/errgroup"
)

type PairResult struct {
	Pair       pair.Pair
	Difference Difference
	LeftInfo   ImageInfoResult
	RightInfo  ImageInfoResult
}

type Engine struct {
	Differ diffimage.Differ
	// Concurrency bounds the number of pairs diffed at once; zero means GOMAXPROCS.
	Concurrency int
}

func NewEngine() *Engine {
	return &Engine{
		Differ: diffimage.NewSignedDiff(),
	}
}

// LoadImage decodes the image at path. A path that cannot be stat'ed is
// reported as missing; every other failure is recorded as InfoError.
func LoadImage(path string) (image.Image, ImageInfoResult) {
	if _, err := os.Stat(path); err != nil {
		return nil, InfoMissing{}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, InfoError{Message: err.Error()}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, InfoError{Message: err.Error()}
	}

	b := img.Bounds()
	return img, InfoLoaded{Info: ImageInfo{Width: uint32(b.Dx()), Height: uint32(b.Dy())}}
}

func (e *Engine) ComputePairDiff(p pair.Pair) (Difference, ImageInfoResult, ImageInfoResult) {
	left, leftInfo := LoadImage(p.Left)
	right, rightInfo := LoadImage(p.Right)
	return e.ComputeImageDiff(left, leftInfo, right, rightInfo), leftInfo, rightInfo
}

// ComputeImageDiff classifies two already loaded sides. A nil image must come
// with an InfoMissing or InfoError result.
func (e *Engine) ComputeImageDiff(left image.Image, leftInfo ImageInfoResult, right image.Image, rightInfo ImageInfoResult) Difference {
	if left == nil || right == nil {
		_, leftFailed := leftInfo.(InfoError)
		_, rightFailed := rightInfo.(InfoError)
		if leftFailed || rightFailed {
			return LoadError{}
		}
		return MissingFile{}
	}

	if left.Bounds().Dx() != right.Bounds().Dx() || left.Bounds().Dy() != right.Bounds().Dy() {
		return SizeMismatch{}
	}

	result := e.differ().Calculate(left, right)
	if result.DifferentPixels == 0 {
		return None{}
	}

	return Content{
		DifferentPixels: result.DifferentPixels,
		DistanceSum:     result.DistanceSum,
		Image:           result.Image,
	}
}

// ComputeDifferences diffs every pair and returns the results in pair order.
// Per-pair failures are recorded in the results; only ctx cancellation is returned.
func (e *Engine) ComputeDifferences(ctx context.Context, pairs []pair.Pair) ([]PairResult, error) {
	results := make([]PairResult, len(pairs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.concurrency())
	for i, p := range pairs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			difference, leftInfo, rightInfo := e.ComputePairDiff(p)
			results[i] = PairResult{
				Pair:       p,
				Difference: difference,
				LeftInfo:   leftInfo,
				RightInfo:  rightInfo,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (e *Engine) differ() diffimage.Differ {
	if e.Differ != nil {
		return e.Differ
	}
	return diffimage.NewSignedDiff()
}

func (e *Engine) concurrency() int {
	if e.Concurrency > 0 {
		return e.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}
