// Package main - analyzer.go
//
// Fuel gauge analysis for the tank game screen.
// Isolates the fuel gauge in the captured frame and measures its fill ratio.
//
// Key responsibilities:
//   - Gauge rectangle isolation via edge detection + point clustering
//   - Direct bar measurement (filled vs empty pixel classification)
//   - Horizontal line-scan fallback when no gauge rectangle is found
//   - Region brightness fallback when the line scan is inconclusive
//   - Last-known / default value when no frame is available
//
// Sampling tiers, in order:
//   1. Bottom 15% crop, gauge isolation + measurement
//   2. Bottom 25% crop, same
//   3. Line scan over the bottom 25% crop
//   4. Mean brightness of the bottom 25% crop
//   5. Last-known value (default 75 before the first reading)
//
// Pixel classification follows the gauge's rendering: a pixel is "empty"
// when every channel is at most 40, "filled" when every channel is at
// least 41, otherwise it stays unclassified and counts toward neither.
package main

import (
	"image"
	"math"
	"sort"
	"time"
)

const (
	// Pixel classification
	emptyChannelMax  = 40
	filledChannelMin = 41

	// Gauge isolation
	gaugeCropPrimary   = 0.15
	gaugeCropSecondary = 0.25
	gaugeMinHeight     = 5
	gaugeMaxHeight     = 30
	gaugeMinAspect     = 3.0
	gaugeMinArea       = 250
	gaugeMinCoverage   = 0.5
	gaugeFrameInset    = 3
	gaugeMaxCandidates = 3

	// Edge detection and clustering
	edgeGradientMin   = 24
	gaugeClusterDistX = 12
	gaugeClusterDistY = 32

	// Line-scan fallback
	stripHeight        = 6
	stripStep          = 3
	stripMinConfidence = 0.3

	// No-frame default, until the first successful reading
	defaultFuelPercent = 75
)

// FuelSampler measures the fuel gauge from captured frames.
// Owned by the policy engine goroutine; not safe for concurrent use.
type FuelSampler struct {
	lastPercent int
}

// NewFuelSampler creates a sampler primed with the default fuel value
func NewFuelSampler() *FuelSampler {
	return &FuelSampler{
		lastPercent: defaultFuelPercent,
	}
}

// Last returns the most recent percentage without sampling
func (fs *FuelSampler) Last() int {
	return fs.lastPercent
}

// Sample measures the fuel level in the given frame, walking the
// fallback tiers until one produces a reading. A nil frame yields the
// last-known value (or the default before any reading succeeded).
func (fs *FuelSampler) Sample(img *image.RGBA) FuelReading {
	now := time.Now()

	if img == nil {
		return FuelReading{Percent: fs.lastPercent, Source: SourceDefault, Timestamp: now}
	}

	for _, crop := range []float64{gaugeCropPrimary, gaugeCropSecondary} {
		region := bottomRegion(img, crop)
		if pct, ok := fs.measureGauge(img, region); ok {
			fs.remember(pct)
			return FuelReading{Percent: pct, Source: SourcePrimaryBar, Timestamp: now}
		}
	}

	region := bottomRegion(img, gaugeCropSecondary)
	if pct, ok := fs.scanStrips(img, region); ok {
		fs.remember(pct)
		return FuelReading{Percent: pct, Source: SourceFallbackHistogram, Timestamp: now}
	}

	pct := regionBrightnessPercent(img, region)
	fs.remember(pct)
	return FuelReading{Percent: pct, Source: SourceFallbackBrightness, Timestamp: now}
}

func (fs *FuelSampler) remember(pct int) {
	fs.lastPercent = Clamp(pct, 0, 100)
}

// measureGauge isolates gauge candidates in the region and measures the
// best one. Candidates are bounding boxes of clustered edge pixels,
// filtered to bar-like shapes.
func (fs *FuelSampler) measureGauge(img *image.RGBA, region Bounds) (int, bool) {
	candidates := fs.findGaugeCandidates(img, region)
	if len(candidates) == 0 {
		return 0, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Size() > candidates[j].Size()
	})
	if len(candidates) > gaugeMaxCandidates {
		candidates = candidates[:gaugeMaxCandidates]
	}

	for _, c := range candidates {
		if pct, ok := fs.measureWithin(img, c); ok {
			LogDebug("Gauge measured at (%d,%d) %dx%d: %d%%", c.X, c.Y, c.W, c.H, pct)
			return pct, true
		}
	}
	return 0, false
}

// findGaugeCandidates collects edge pixels in the region and clusters
// them into bounding boxes, keeping only bar-shaped ones.
func (fs *FuelSampler) findGaugeCandidates(img *image.RGBA, region Bounds) []Bounds {
	bounds := img.Bounds()
	minX := max(region.X, bounds.Min.X+1)
	minY := max(region.Y, bounds.Min.Y+1)
	maxX := min(region.X+region.W, bounds.Max.X-1)
	maxY := min(region.Y+region.H, bounds.Max.Y-1)

	var edges []Point
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			gx := grayAt(img, x+1, y) - grayAt(img, x-1, y)
			gy := grayAt(img, x, y+1) - grayAt(img, x, y-1)
			if abs(gx)+abs(gy) >= edgeGradientMin {
				edges = append(edges, Point{X: x, Y: y})
			}
		}
	}
	if len(edges) == 0 {
		return nil
	}

	clusters := clusterPoints(edges, gaugeClusterDistX, gaugeClusterDistY)

	var candidates []Bounds
	for _, c := range clusters {
		if c.H < gaugeMinHeight || c.H > gaugeMaxHeight {
			continue
		}
		if c.AspectRatio() < gaugeMinAspect {
			continue
		}
		if c.Size() < gaugeMinArea {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// measureWithin classifies the pixels inside a candidate rectangle and
// returns the filled ratio. The frame border is excluded by insetting.
// Fails when too few pixels classify as either filled or empty.
func (fs *FuelSampler) measureWithin(img *image.RGBA, candidate Bounds) (int, bool) {
	inner := candidate.Shrink(gaugeFrameInset)
	if inner.W <= 0 || inner.H <= 0 {
		return 0, false
	}

	filled, empty, total := 0, 0, 0
	for y := inner.Y; y < inner.Y+inner.H; y++ {
		for x := inner.X; x < inner.X+inner.W; x++ {
			if !(image.Point{X: x, Y: y}.In(img.Bounds())) {
				continue
			}
			total++
			switch classifyFuelPixel(img, x, y) {
			case 1:
				filled++
			case -1:
				empty++
			}
		}
	}

	if total == 0 {
		return 0, false
	}
	classified := filled + empty
	if float64(classified)/float64(total) < gaugeMinCoverage {
		return 0, false
	}
	if classified == 0 {
		return 0, false
	}
	return Clamp(100*filled/classified, 0, 100), true
}

// scanStrips slides horizontal strips over the region and measures the
// one that looks most like a gauge row: high gray variance plus strong
// horizontal gradients (the fill boundary).
func (fs *FuelSampler) scanStrips(img *image.RGBA, region Bounds) (int, bool) {
	bounds := img.Bounds()
	minX := max(region.X, bounds.Min.X+1)
	minY := max(region.Y, bounds.Min.Y)
	maxX := min(region.X+region.W, bounds.Max.X-1)
	maxY := min(region.Y+region.H, bounds.Max.Y)

	bestConf := 0.0
	bestTop := -1

	for top := minY; top+stripHeight <= maxY; top += stripStep {
		sum, sumSq, gradSum, n := 0.0, 0.0, 0.0, 0
		for y := top; y < top+stripHeight; y++ {
			for x := minX; x < maxX; x++ {
				g := float64(grayAt(img, x, y))
				sum += g
				sumSq += g * g
				gradSum += float64(abs(grayAt(img, x+1, y) - grayAt(img, x-1, y)))
				n++
			}
		}
		if n == 0 {
			continue
		}
		mean := sum / float64(n)
		variance := sumSq/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		stddev := math.Sqrt(variance)
		meanGrad := gradSum / float64(n)

		conf := 0.5*ClampFloat(stddev/64.0, 0, 1) + 0.5*ClampFloat(meanGrad/16.0, 0, 1)
		if conf > bestConf {
			bestConf = conf
			bestTop = top
		}
	}

	if bestTop < 0 || bestConf <= stripMinConfidence {
		return 0, false
	}

	filled, empty := 0, 0
	for y := bestTop; y < bestTop+stripHeight; y++ {
		for x := minX; x < maxX; x++ {
			switch classifyFuelPixel(img, x, y) {
			case 1:
				filled++
			case -1:
				empty++
			}
		}
	}
	if filled+empty == 0 {
		return 0, false
	}
	LogDebug("Line scan at y=%d conf=%.2f: %d filled / %d empty", bestTop, bestConf, filled, empty)
	return Clamp(100*filled/(filled+empty), 0, 100), true
}

// classifyFuelPixel returns 1 for filled, -1 for empty, 0 for unclassified
func classifyFuelPixel(img *image.RGBA, x, y int) int {
	c := img.RGBAAt(x, y)
	if c.R <= emptyChannelMax && c.G <= emptyChannelMax && c.B <= emptyChannelMax {
		return -1
	}
	if c.R >= filledChannelMin && c.G >= filledChannelMin && c.B >= filledChannelMin {
		return 1
	}
	return 0
}

// regionBrightnessPercent maps mean region brightness onto 0-100
func regionBrightnessPercent(img *image.RGBA, region Bounds) int {
	bounds := img.Bounds()
	minX := max(region.X, bounds.Min.X)
	minY := max(region.Y, bounds.Min.Y)
	maxX := min(region.X+region.W, bounds.Max.X)
	maxY := min(region.Y+region.H, bounds.Max.Y)

	sum, n := 0, 0
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			sum += grayAt(img, x, y)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return Clamp(sum*100/(n*255), 0, 100)
}

// bottomRegion returns the bottom fraction of the frame, where the HUD
// fuel gauge lives
func bottomRegion(img *image.RGBA, fraction float64) Bounds {
	b := img.Bounds()
	h := int(float64(b.Dy()) * fraction)
	if h < 1 {
		h = 1
	}
	return Bounds{
		X: b.Min.X,
		Y: b.Max.Y - h,
		W: b.Dx(),
		H: h,
	}
}

// grayAt returns the luma of a pixel (0-255)
func grayAt(img *image.RGBA, x, y int) int {
	c := img.RGBAAt(x, y)
	return (299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000
}

// max returns the maximum of two integers
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// min returns the minimum of two integers
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
