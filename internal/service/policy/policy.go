// Package policy decides how a detection is drawn and whether a frame alarms.
package policy

import (
	"image/color"

	"github.com/samber/lo"

	"guardcam/internal/config"
	"guardcam/internal/dto"
)

// Tier is the confidence band of a detection.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

const (
	ThinLine  = 2
	ThickLine = 4
)

var (
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	Orange = color.RGBA{R: 255, G: 165, B: 0, A: 0}
	Blue   = color.RGBA{R: 0, G: 0, B: 255, A: 0}
)

type Policy struct {
	dangerous       map[string]struct{}
	highConfidence  float64
	alarmConfidence float64
}

func New(cfg config.Policy) *Policy {
	return &Policy{
		dangerous:       lo.Keyify(cfg.DangerousClasses),
		highConfidence:  cfg.HighConfidence,
		alarmConfidence: cfg.AlarmConfidence,
	}
}

// Tier buckets a confidence: high >= HighConfidence, medium >= AlarmConfidence, low otherwise.
func (p *Policy) Tier(confidence float64) Tier {
	switch {
	case confidence >= p.highConfidence:
		return TierHigh
	case confidence >= p.alarmConfidence:
		return TierMedium
	default:
		return TierLow
	}
}

func (p *Policy) IsDangerous(label string) bool {
	_, ok := p.dangerous[label]
	return ok
}

// Triggers reports whether a single detection raises the alarm.
func (p *Policy) Triggers(d dto.Detection) bool {
	return p.IsDangerous(d.Label) && d.Confidence >= p.alarmConfidence
}

// Style picks the box color and thickness. Low-confidence boxes ignore the
// danger flag and are colored by size relative to the frame instead.
func (p *Policy) Style(d dto.Detection, frameHeight int) dto.DrawStyle {
	dangerous := p.IsDangerous(d.Label)

	switch p.Tier(d.Confidence) {
	case TierHigh:
		if dangerous {
			return dto.DrawStyle{Color: Red, Thickness: ThickLine}
		}
		return dto.DrawStyle{Color: Green, Thickness: ThinLine}
	case TierMedium:
		if dangerous {
			return dto.DrawStyle{Color: Red, Thickness: ThinLine}
		}
		return dto.DrawStyle{Color: Yellow, Thickness: ThinLine}
	default:
		if float64(d.Height()) >= float64(frameHeight)/4 {
			return dto.DrawStyle{Color: Orange, Thickness: ThickLine}
		}
		return dto.DrawStyle{Color: Blue, Thickness: ThickLine}
	}
}

// Alarm is recomputed from scratch for every frame.
func (p *Policy) Alarm(detections []dto.Detection) bool {
	return lo.SomeBy(detections, p.Triggers)
}

// Alarming returns the detections responsible for the alarm.
func (p *Policy) Alarming(detections []dto.Detection) []dto.Detection {
	return lo.Filter(detections, func(d dto.Detection, _ int) bool {
		return p.Triggers(d)
	})
}
