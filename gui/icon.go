//go:build gui

package gui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"fyne.io/fyne/v2"
)

// trayIcon draws a 22px red dot with a soft edge.
func trayIcon() fyne.Resource {
	const size = 22
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	c := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)-c+0.5, float64(y)-c+0.5)
			switch {
			case d < 6:
				img.Set(x, y, color.RGBA{230, 40, 40, 255})
			case d < 8:
				a := uint8(255 * (8 - d) / 2)
				img.Set(x, y, color.RGBA{230, 40, 40, a})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return fyne.NewStaticResource("murmur-tray.png", buf.Bytes())
}
