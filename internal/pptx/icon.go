package pptx

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
)

const (
	iconSize = 128
	iconPath = mediaDir + "narration_icon.png"
)

// RenderIcon draws the speaker symbol shown on narrated slides as a PNG.
func RenderIcon() ([]byte, error) {
	const (
		center = iconSize / 2.0
		radius = iconSize/2.0 - 4
	)

	dc := gg.NewContext(iconSize, iconSize)

	dc.DrawCircle(center, center, radius)
	dc.SetRGB255(31, 78, 121)
	dc.Fill()

	// Speaker body: a box with a flared cone.
	dc.MoveTo(34, 52)
	dc.LineTo(50, 52)
	dc.LineTo(70, 34)
	dc.LineTo(70, 94)
	dc.LineTo(50, 76)
	dc.LineTo(34, 76)
	dc.ClosePath()
	dc.SetRGB(1, 1, 1)
	dc.Fill()

	dc.SetLineWidth(6)
	dc.SetLineCapRound()

	for _, waveRadius := range []float64{12, 24} {
		dc.DrawArc(74, center, waveRadius, gg.Radians(-45), gg.Radians(45))
		dc.Stroke()
	}

	var buf bytes.Buffer

	err := dc.EncodePNG(&buf)
	if err != nil {
		return nil, fmt.Errorf("encode icon: %w", err)
	}

	return buf.Bytes(), nil
}
