package image

import (
	"image"
	"runtime"
	"sync"
	"sync/atomic"
)

// SignedDiff compares the color channels of two equally sized images.
// Alpha is ignored.
type SignedDiff struct{}

func NewSignedDiff() *SignedDiff {
	return &SignedDiff{}
}

func (s *SignedDiff) Calculate(left image.Image, right image.Image) *DiffResult {
	l := toNRGBA(left)
	r := toNRGBA(right)

	bounds := l.Rect
	diff := image.NewRGBA(bounds)

	var differentPixels atomic.Uint64
	var distanceSum atomic.Uint64

	// Use GOMAXPROCS instead of runtime.NumCPU() to consider cgroup.
	numWorkers := runtime.GOMAXPROCS(0)
	height := bounds.Dy()
	if numWorkers > height {
		numWorkers = max(height, 1)
	}
	rowsPerWorker := height / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if i == numWorkers-1 {
			endY = height
		}

		go func(startY int, endY int) {
			defer wg.Done()
			n, sum := s.processRows(l, r, diff, startY, endY)
			differentPixels.Add(n)
			distanceSum.Add(sum)
		}(startY, endY)
	}
	wg.Wait()

	return &DiffResult{
		Image:           diff,
		DifferentPixels: differentPixels.Load(),
		DistanceSum:     distanceSum.Load(),
	}
}

func (s *SignedDiff) processRows(left *image.NRGBA, right *image.NRGBA, diff *image.RGBA, startY int, endY int) (uint64, uint64) {
	var localDifferent uint64
	var localSum uint64

	width := diff.Rect.Dx()
	for y := startY; y < endY; y++ {
		leftRow := left.PixOffset(0, y)
		rightRow := right.PixOffset(0, y)
		diffRow := diff.PixOffset(0, y)

		for x := 0; x < width; x++ {
			lo := leftRow + x*4
			ro := rightRow + x*4
			do := diffRow + x*4

			lp := left.Pix[lo : lo+3 : lo+3]
			rp := right.Pix[ro : ro+3 : ro+3]
			if lp[0] != rp[0] || lp[1] != rp[1] || lp[2] != rp[2] {
				localDifferent++
			}

			magnitude, signed := dominantDelta(lp, rp)
			localSum += uint64(magnitude)
			if signed < 0 {
				diff.Pix[do] = uint8(magnitude)
			} else {
				diff.Pix[do+1] = uint8(magnitude)
			}
			diff.Pix[do+3] = 255
		}
	}

	return localDifferent, localSum
}

// dominantDelta returns |right-left| and right-left for the channel with the
// largest absolute change. Channels are visited R, G, B and a later channel
// only wins when strictly larger.
func dominantDelta(left []uint8, right []uint8) (int32, int32) {
	var magnitude int32
	var signed int32
	for i := range left {
		delta := int32(right[i]) - int32(left[i])
		abs := delta
		if abs < 0 {
			abs = -abs
		}
		if abs > magnitude {
			magnitude = abs
			signed = delta
		}
	}
	return magnitude, signed
}
