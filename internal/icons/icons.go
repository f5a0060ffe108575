// Package icons renders the marker glyphs registered on the maps.
package icons

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"

	"github.com/joeblew999/typhoon-viz/internal/config"
)

// Image names used in layer styles.
const (
	Strong     = "typhoon-strong"
	Mild       = "typhoon-mild"
	Past       = "typhoon-past"
	Depression = "typhoon-td"
)

// PlaceholderSize is the edge length of generated placeholder images.
const PlaceholderSize = 64

// swirl is the outline of the typhoon symbol in an 85×116 box.
const swirl = "M79.5,6.3c0.2-0.1,0.3-0.3,0.2-0.5c0-0.1-0.1-0.1-0.1-0.2c-9.1-4.4-19.2-6.3-29.3-5.3" +
	"C39.7,1.6,29.6,6.2,18.9,15.9S1.1,37.9,0.1,52.7c-1.2,18.5,9.3,39,33.5,45.7c-8.7,6.2-20.6,10.3-33.1,12" +
	"c-0.2,0.1-0.3,0.3-0.2,0.5c0,0.1,0.1,0.1,0.1,0.2c9.4,5.3,19.3,5.5,30.6,4.2s23.3-7,30.9-13.2" +
	"s21-18.4,22.9-37.8S69.4,18.9,45,17.8C53.6,11.7,66.6,6.4,79.5,6.3z" +
	"M61,76.9c-10.1,10.2-26.6,10.3-36.8,0.2S13.9,50.5,24,40.3S50.6,30,60.8,40.1" +
	"c0.1,0.1,0.1,0.1,0.2,0.2C71,50.4,71,66.8,61,76.9z"

// Glyph is a named SVG image.
type Glyph struct {
	Name string
	SVG  []byte
}

// Typhoon returns the swirl symbol filled with color.
func Typhoon(color string) []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startview(85, 116, 0, 0, 85, 116)
	canvas.Path(swirl, "fill:"+color)
	canvas.End()
	return buf.Bytes()
}

// depression draws the tropical depression marker: a crossed circle.
func depression() []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startview(40, 40, 0, 0, 40, 40)
	canvas.Circle(20, 20, 18, "fill:white;stroke:#333;stroke-width:2")
	canvas.Path("M10 10L30 30M30 10L10 30", "fill:none;stroke:#333;stroke-width:3")
	canvas.End()
	return buf.Bytes()
}

// All returns the glyphs every map with typhoon markers registers.
func All() []Glyph {
	return []Glyph{
		{Name: Depression, SVG: depression()},
		{Name: Past, SVG: Typhoon("#353578")},
		{Name: Mild, SVG: Typhoon("#ff6600")},
		{Name: Strong, SVG: Typhoon("#ff0000")},
	}
}

// Select picks the marker of a track point on the active typhoon. Observed
// points get the depression marker; the present point is graded by wind.
func Select(t config.Icons, wind float64, past, current bool) string {
	switch {
	case past:
		return Depression
	case !current:
		return Past
	case wind >= t.StrongWind:
		return Strong
	case wind >= t.MildWind:
		return Mild
	}
	return Past
}

// Placeholder draws the image used when a style asks for an unknown icon:
// a filled disc with a white rim.
func Placeholder(color string) []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(PlaceholderSize, PlaceholderSize)
	r := PlaceholderSize / 3
	canvas.Circle(PlaceholderSize/2, PlaceholderSize/2, r, fmt.Sprintf("fill:%s;stroke:#FFFFFF;stroke-width:3", color))
	canvas.End()
	return buf.Bytes()
}
