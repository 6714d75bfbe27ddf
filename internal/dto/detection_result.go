package dto

import (
	"image"
	"image/color"
)

// Detection is a single post-NMS box from the inference engine, in source frame pixels.
type Detection struct {
	Box        image.Rectangle `json:"box"`
	Confidence float64         `json:"confidence"`
	Label      string          `json:"label"`
	ClassID    int             `json:"class_id"`
}

// Height of the box in pixels.
func (d Detection) Height() int {
	return d.Box.Dy()
}

// DrawStyle is the rectangle color and line thickness picked for a detection.
type DrawStyle struct {
	Color     color.RGBA
	Thickness int
}
