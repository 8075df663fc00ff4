package main

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	yellowFuel     = color.RGBA{255, 255, 0, 255}
	brownEquipment = color.RGBA{100, 50, 15, 255}
)

func TestDetectFuelBlob(t *testing.T) {
	img := uniformFrame(200, 200, color.RGBA{0, 0, 0, 255})
	fillRect(img, 60, 60, 12, 12, yellowFuel)

	od := NewObjectDetector()
	objects := od.Detect(img, ObjectFuel)

	require.Len(t, objects, 1)
	assert.Equal(t, ObjectFuel, objects[0].Kind)
	assert.Equal(t, 144, objects[0].AreaPx)
	assert.Equal(t, Point{X: 66, Y: 66}, objects[0].ClickTarget())
	assert.Greater(t, objects[0].EstimatedValue, 0.0)
}

func TestDetectRanksByEstimatedValue(t *testing.T) {
	// Same color, so the bigger blob carries the higher estimated value
	img := uniformFrame(200, 200, color.RGBA{0, 0, 0, 255})
	fillRect(img, 60, 60, 10, 10, yellowFuel)
	fillRect(img, 100, 100, 20, 20, yellowFuel)

	od := NewObjectDetector()
	objects := od.Detect(img, ObjectFuel)

	require.Len(t, objects, 2)
	assert.Equal(t, 400, objects[0].AreaPx)
	assert.Equal(t, 100, objects[1].AreaPx)
	assert.Greater(t, objects[0].EstimatedValue, objects[1].EstimatedValue)
}

func TestDetectSeparatesKinds(t *testing.T) {
	img := uniformFrame(200, 200, color.RGBA{0, 0, 0, 255})
	fillRect(img, 60, 60, 12, 12, yellowFuel)
	fillRect(img, 100, 100, 14, 14, brownEquipment)

	od := NewObjectDetector()

	fuel := od.Detect(img, ObjectFuel)
	require.Len(t, fuel, 1)
	assert.Equal(t, Point{X: 66, Y: 66}, fuel[0].ClickTarget())

	equipment := od.Detect(img, ObjectEquipment)
	require.Len(t, equipment, 1)
	assert.Equal(t, ObjectEquipment, equipment[0].Kind)
	assert.Equal(t, Point{X: 107, Y: 107}, equipment[0].ClickTarget())
}

func TestDetectIgnoresScreenEdges(t *testing.T) {
	// HUD margin: blobs touching the outer 45px band are rejected
	img := uniformFrame(200, 200, color.RGBA{0, 0, 0, 255})
	fillRect(img, 5, 80, 12, 12, yellowFuel)
	fillRect(img, 150, 80, 12, 12, yellowFuel)

	od := NewObjectDetector()
	assert.Empty(t, od.Detect(img, ObjectFuel))
}

func TestDetectFiltersTinySpecks(t *testing.T) {
	img := uniformFrame(200, 200, color.RGBA{0, 0, 0, 255})
	fillRect(img, 60, 60, 3, 3, yellowFuel)

	od := NewObjectDetector()
	assert.Empty(t, od.Detect(img, ObjectFuel))
}

func TestDetectCapsResults(t *testing.T) {
	img := uniformFrame(400, 400, color.RGBA{0, 0, 0, 255})
	for _, y := range []int{60, 110, 160} {
		for _, x := range []int{60, 110, 160} {
			fillRect(img, x, y, 12, 12, yellowFuel)
		}
	}

	od := NewObjectDetector()
	objects := od.Detect(img, ObjectFuel)
	assert.Len(t, objects, 8)
}

func TestDetectNilFrame(t *testing.T) {
	od := NewObjectDetector()
	assert.Nil(t, od.Detect(nil, ObjectFuel))
}

func TestDetectDeterministic(t *testing.T) {
	img := uniformFrame(200, 200, color.RGBA{0, 0, 0, 255})
	fillRect(img, 60, 60, 12, 12, yellowFuel)
	fillRect(img, 100, 100, 20, 20, yellowFuel)

	od := NewObjectDetector()
	first := od.Detect(img, ObjectFuel)
	second := od.Detect(img, ObjectFuel)
	assert.Equal(t, first, second)
}

func TestRGBToHSV(t *testing.T) {
	// Pure yellow sits at hue 30 on the 0-180 scale
	h, s, v := rgbToHSV(255, 255, 0)
	assert.Equal(t, 30, h)
	assert.Equal(t, 255, s)
	assert.Equal(t, 255, v)

	// Achromatic pixels have zero saturation
	h, s, v = rgbToHSV(128, 128, 128)
	assert.Equal(t, 0, h)
	assert.Equal(t, 0, s)
	assert.Equal(t, 128, v)
}
