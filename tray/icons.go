package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"voiceptt/app"
)

const iconSize = 44

// icons holds one rendered ring per glyph, drawn once at startup.
var icons = map[app.Glyph][]byte{
	app.GlyphIdle:       renderRing(nil),
	app.GlyphRecording:  renderRing(&color.RGBA{R: 255, G: 59, B: 48, A: 255}),
	app.GlyphProcessing: renderRing(&color.RGBA{R: 255, G: 204, B: 0, A: 255}),
	app.GlyphSuccess:    renderRing(&color.RGBA{R: 52, G: 199, B: 89, A: 255}),
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encodePNG: " + err.Error())
	}
	return buf.Bytes()
}

// renderRing draws a black disc with an optional coloured dot in the middle.
func renderRing(dot *color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	c := float64(iconSize) / 2
	outer := c - 1
	dotR := float64(iconSize) / 6.5
	for y := range iconSize {
		for x := range iconSize {
			d := math.Hypot(float64(x)+0.5-c, float64(y)+0.5-c)
			switch {
			case dot != nil && d <= dotR:
				img.Set(x, y, dot)
			case d <= outer:
				img.Set(x, y, color.Black)
			}
		}
	}
	return encodePNG(img)
}
