// Package main - detector.go
//
// Collectible detection for the tank game screen.
// Finds fuel nodes (yellow/golden) and equipment drops (brown/gray)
// as color blobs and ranks them for collection.
//
// Pipeline:
//   1. HSV color mask per object kind (multiple bands per kind)
//   2. Morphological close then open (3x3) to heal and denoise the mask
//   3. Connected component labeling (8-connectivity)
//   4. Shape filters: area band per kind, aspect ratio, screen edge margin
//   5. Rank by estimated value: blob area weighted by mean brightness
//
// Hue is expressed on the 0-180 scale throughout.
package main

import (
	"image"
	"sort"
)

const (
	// Shape filters
	fuelMinAreaPx      = 80
	fuelMaxAreaPx      = 3000
	equipmentMinAreaPx = 100
	equipmentMaxAreaPx = 5000
	blobMinAspect      = 0.3
	blobMaxAspect      = 3.0
	screenEdgeMargin   = 45

	// Result cap per detection pass
	maxDetections = 8

	morphKernelRadius = 1 // 3x3 structuring element
)

// hsvRange is an inclusive HSV band (H on 0-180, S and V on 0-255)
type hsvRange struct {
	minH, maxH int
	minS, maxS int
	minV, maxV int
}

func (r hsvRange) contains(h, s, v int) bool {
	return h >= r.minH && h <= r.maxH &&
		s >= r.minS && s <= r.maxS &&
		v >= r.minV && v <= r.maxV
}

// Fuel nodes render as bright yellow dots with a golden rim
var fuelRanges = []hsvRange{
	{minH: 20, maxH: 35, minS: 120, maxS: 255, minV: 150, maxV: 255}, // bright yellow
	{minH: 12, maxH: 22, minS: 100, maxS: 255, minV: 120, maxV: 255}, // golden
}

// Equipment drops are brown/orange crates or gray metallic parts
var equipmentRanges = []hsvRange{
	{minH: 4, maxH: 20, minS: 100, maxS: 255, minV: 60, maxV: 210}, // brown/orange
	{minH: 0, maxH: 180, minS: 0, maxS: 45, minV: 90, maxV: 200},   // gray metallic
}

// ObjectDetector finds and ranks collectibles in captured frames.
// Stateless; safe to share across call sites within one goroutine.
type ObjectDetector struct{}

// NewObjectDetector creates a new detector
func NewObjectDetector() *ObjectDetector {
	return &ObjectDetector{}
}

// Detect finds all objects of the given kind, ranked by estimated value
// (descending). Deterministic for identical frames. Never returns more
// than maxDetections results.
func (od *ObjectDetector) Detect(img *image.RGBA, kind ObjectKind) []DetectedObject {
	if img == nil {
		return nil
	}

	ranges := fuelRanges
	minArea, maxArea := fuelMinAreaPx, fuelMaxAreaPx
	if kind == ObjectEquipment {
		ranges = equipmentRanges
		minArea, maxArea = equipmentMinAreaPx, equipmentMaxAreaPx
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	mask := buildColorMask(img, ranges)
	mask = morphClose(mask, w, h)
	mask = morphOpen(mask, w, h)

	gray := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray[y*w+x] = grayAt(img, b.Min.X+x, b.Min.Y+y)
		}
	}

	blobs := labelComponents(mask, gray, w, h)

	var objects []DetectedObject
	for _, blob := range blobs {
		if blob.area < minArea || blob.area > maxArea {
			continue
		}
		aspect := blob.bounds.AspectRatio()
		if aspect < blobMinAspect || aspect > blobMaxAspect {
			continue
		}
		if tooCloseToEdge(blob.bounds, w, h) {
			continue
		}

		meanBrightness := 0.0
		if blob.area > 0 {
			meanBrightness = float64(blob.graySum) / float64(blob.area)
		}
		objects = append(objects, DetectedObject{
			Kind: kind,
			Bounds: Bounds{
				X: b.Min.X + blob.bounds.X,
				Y: b.Min.Y + blob.bounds.Y,
				W: blob.bounds.W,
				H: blob.bounds.H,
			},
			AreaPx:         blob.area,
			EstimatedValue: float64(blob.area) * meanBrightness / 255.0,
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		if objects[i].EstimatedValue != objects[j].EstimatedValue {
			return objects[i].EstimatedValue > objects[j].EstimatedValue
		}
		if objects[i].AreaPx != objects[j].AreaPx {
			return objects[i].AreaPx > objects[j].AreaPx
		}
		return objects[i].Bounds.X < objects[j].Bounds.X
	})

	if len(objects) > maxDetections {
		objects = objects[:maxDetections]
	}

	LogDebug("Detected %d %s objects", len(objects), kind)
	return objects
}

// buildColorMask marks every pixel whose HSV falls inside any band
func buildColorMask(img *image.RGBA, ranges []hsvRange) []bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := make([]bool, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			hh, ss, vv := rgbToHSV(c.R, c.G, c.B)
			for _, r := range ranges {
				if r.contains(hh, ss, vv) {
					mask[y*w+x] = true
					break
				}
			}
		}
	}
	return mask
}

// rgbToHSV converts RGB to HSV with hue on the 0-180 scale
func rgbToHSV(r, g, b uint8) (int, int, int) {
	ri, gi, bi := int(r), int(g), int(b)
	mx := max(ri, max(gi, bi))
	mn := min(ri, min(gi, bi))
	v := mx

	s := 0
	if mx > 0 {
		s = 255 * (mx - mn) / mx
	}

	h := 0
	d := mx - mn
	if d > 0 {
		switch mx {
		case ri:
			h = 30 * (gi - bi) / d
		case gi:
			h = 60 + 30*(bi-ri)/d
		default:
			h = 120 + 30*(ri-gi)/d
		}
		if h < 0 {
			h += 180
		}
	}
	return h, s, v
}

// morphClose is dilation followed by erosion: heals small holes
func morphClose(mask []bool, w, h int) []bool {
	return erode(dilate(mask, w, h), w, h)
}

// morphOpen is erosion followed by dilation: removes small specks
func morphOpen(mask []bool, w, h int) []bool {
	return dilate(erode(mask, w, h), w, h)
}

func dilate(mask []bool, w, h int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !mask[y*w+x] {
				continue
			}
			for dy := -morphKernelRadius; dy <= morphKernelRadius; dy++ {
				for dx := -morphKernelRadius; dx <= morphKernelRadius; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && nx < w && ny >= 0 && ny < h {
						out[ny*w+nx] = true
					}
				}
			}
		}
	}
	return out
}

func erode(mask []bool, w, h int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			keep := true
			for dy := -morphKernelRadius; dy <= morphKernelRadius && keep; dy++ {
				for dx := -morphKernelRadius; dx <= morphKernelRadius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h || !mask[ny*w+nx] {
						keep = false
						break
					}
				}
			}
			out[y*w+x] = keep
		}
	}
	return out
}

// blob is one connected component of the mask
type blob struct {
	area    int
	graySum int
	bounds  Bounds
}

// labelComponents extracts connected components via BFS, 8-connectivity.
// Scan order is row-major, so labeling is deterministic.
func labelComponents(mask []bool, gray []int, w, h int) []blob {
	visited := make([]bool, len(mask))
	var blobs []blob
	var queue []int

	for start := 0; start < len(mask); start++ {
		if !mask[start] || visited[start] {
			continue
		}

		visited[start] = true
		queue = append(queue[:0], start)
		cur := blob{bounds: Bounds{X: start % w, Y: start / w}}
		minX, minY := start%w, start/w
		maxX, maxY := minX, minY

		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w

			cur.area++
			cur.graySum += gray[idx]
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if mask[nidx] && !visited[nidx] {
						visited[nidx] = true
						queue = append(queue, nidx)
					}
				}
			}
		}

		cur.bounds = Bounds{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
		blobs = append(blobs, cur)
	}
	return blobs
}

// tooCloseToEdge rejects blobs inside the UI margin around the screen,
// where HUD elements masquerade as collectibles
func tooCloseToEdge(b Bounds, w, h int) bool {
	return b.X < screenEdgeMargin ||
		b.Y < screenEdgeMargin ||
		b.X+b.W > w-screenEdgeMargin ||
		b.Y+b.H > h-screenEdgeMargin
}
