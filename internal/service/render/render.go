// Package render draws detection overlays onto frames.
package render

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"guardcam/internal/dto"
	"guardcam/internal/service/policy"
)

// WarningText is drawn on every alarming frame.
const WarningText = "WARNING: POTENTIALLY DANGEROUS OBJECT DETECTED!"

const (
	labelScale     = 0.9
	labelThickness = 2
	labelOffset    = 10

	bannerScale     = 1.0
	bannerThickness = 2
)

// BannerOrigin is the bottom-left corner of the warning text.
var BannerOrigin = image.Pt(50, 50)

// LabelText formats the caption shown above a box.
func LabelText(d dto.Detection) string {
	return fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
}

// LabelOrigin places the caption just above the top-left corner of the box.
func LabelOrigin(d dto.Detection) image.Point {
	return image.Pt(d.Box.Min.X, d.Box.Min.Y-labelOffset)
}

// DrawDetection draws the box and its caption in the given style.
func DrawDetection(mat *gocv.Mat, d dto.Detection, style dto.DrawStyle) error {
	if err := gocv.Rectangle(mat, d.Box, style.Color, style.Thickness); err != nil {
		return errors.Wrap(err, "failed to draw rectangle")
	}
	if err := gocv.PutText(mat, LabelText(d), LabelOrigin(d), gocv.FontHersheySimplex, labelScale, style.Color, labelThickness); err != nil {
		return errors.Wrap(err, "failed to draw label")
	}
	return nil
}

// DrawBanner overlays the danger warning.
func DrawBanner(mat *gocv.Mat) error {
	if err := gocv.PutText(mat, WarningText, BannerOrigin, gocv.FontHersheySimplex, bannerScale, policy.Red, bannerThickness); err != nil {
		return errors.Wrap(err, "failed to draw banner")
	}
	return nil
}

// EncodeJPEG copies the frame out as JPEG bytes.
func EncodeJPEG(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode frame")
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}
