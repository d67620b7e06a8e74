package landmark

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var markerColor = color.RGBA{G: 255, A: 255}

const markerRadius = 2

// Annotate returns an RGBA copy of img with every landmark of d drawn as a
// small filled green square. img is not modified.
func Annotate(img image.Image, d Detection) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	marker := image.NewUniform(markerColor)
	for _, p := range d.Points {
		x, y := int(p.X+0.5), int(p.Y+0.5)
		r := image.Rect(x-markerRadius, y-markerRadius, x+markerRadius+1, y+markerRadius+1).Intersect(b)
		if r.Empty() {
			continue
		}
		draw.Draw(out, r, marker, image.Point{}, draw.Src)
	}
	return out
}
