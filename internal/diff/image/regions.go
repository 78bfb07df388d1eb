package image

import (
	"fmt"
	"image"
)

type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

type point struct {
	x int
	y int
}

// FindRegions groups the changed pixels of a diff image into bounding boxes.
// Boxes that overlap or lie within mergeDistance pixels of each other are merged.
func FindRegions(diff *image.RGBA, mergeDistance int) []Rectangle {
	if diff == nil {
		return nil
	}
	width := diff.Rect.Dx()
	height := diff.Rect.Dy()

	changed := make([]bool, width*height)
	for y := 0; y < height; y++ {
		row := diff.PixOffset(diff.Rect.Min.X, diff.Rect.Min.Y+y)
		for x := 0; x < width; x++ {
			o := row + x*4
			changed[y*width+x] = diff.Pix[o] != 0 || diff.Pix[o+1] != 0 || diff.Pix[o+2] != 0
		}
	}

	visited := make([]bool, width*height)
	var rectangles []Rectangle
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if changed[y*width+x] && !visited[y*width+x] {
				rectangles = append(rectangles, boundingBox(changed, visited, x, y, width, height))
			}
		}
	}

	return mergeRectangles(rectangles, mergeDistance)
}

func boundingBox(changed []bool, visited []bool, startX int, startY int, width int, height int) Rectangle {
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	queue := []point{{startX, startY}}
	visited[startY*width+startX] = true

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		minX = min(minX, p.x)
		maxX = max(maxX, p.x)
		minY = min(minY, p.y)
		maxY = max(maxY, p.y)

		// 8-connected
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx := p.x + dx
				ny := p.y + dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				i := ny*width + nx
				if changed[i] && !visited[i] {
					visited[i] = true
					queue = append(queue, point{nx, ny})
				}
			}
		}
	}

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

func mergeRectangles(rects []Rectangle, distance int) []Rectangle {
	if len(rects) <= 1 {
		return rects
	}

	merged := make([]Rectangle, 0, len(rects))
	used := make([]bool, len(rects))

	for i := range rects {
		if used[i] {
			continue
		}

		current := rects[i]
		for mergedAny := true; mergedAny; {
			mergedAny = false
			for j := i + 1; j < len(rects); j++ {
				if used[j] {
					continue
				}
				if overlap(expand(current, distance), expand(rects[j], distance)) {
					current = combine(current, rects[j])
					used[j] = true
					mergedAny = true
				}
			}
		}

		merged = append(merged, current)
	}

	return merged
}

func expand(r Rectangle, by int) Rectangle {
	return Rectangle{
		X:      r.X - by,
		Y:      r.Y - by,
		Width:  r.Width + 2*by,
		Height: r.Height + 2*by,
	}
}

func overlap(r1 Rectangle, r2 Rectangle) bool {
	return !(r1.X+r1.Width <= r2.X || r2.X+r2.Width <= r1.X ||
		r1.Y+r1.Height <= r2.Y || r2.Y+r2.Height <= r1.Y)
}

func combine(r1 Rectangle, r2 Rectangle) Rectangle {
	minX := min(r1.X, r2.X)
	minY := min(r1.Y, r2.Y)
	maxX := max(r1.X+r1.Width, r2.X+r2.Width)
	maxY := max(r1.Y+r1.Height, r2.Y+r2.Height)

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}
