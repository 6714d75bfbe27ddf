// Package capture runs the capture, detect and annotate loop.
package capture

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"guardcam/internal/dto"
	"guardcam/internal/logger"
	"guardcam/internal/service/policy"
	"guardcam/internal/service/render"
)

const quitKey = 'q'

// Engine turns a frame into detections.
type Engine interface {
	Detect(frame gocv.Mat) ([]dto.Detection, error)
}

// Emitter accepts alarm events without blocking the loop.
type Emitter interface {
	Emit(event dto.AlarmEvent) bool
}

// Stats summarizes a finished run.
type Stats struct {
	Frames        int64
	AlarmFrames   int64
	DroppedAlarms int64
	Started       time.Time
	Stopped       time.Time
}

type Loop struct {
	camera  string
	source  FrameSource
	engine  Engine
	policy  *policy.Policy
	display Display
	alarms  Emitter
	logger  *logger.Logger

	now   func() time.Time
	stats Stats
}

func NewLoop(camera string, source FrameSource, engine Engine, policy *policy.Policy, display Display, alarms Emitter, logger *logger.Logger) *Loop {
	return &Loop{
		camera:  camera,
		source:  source,
		engine:  engine,
		policy:  policy,
		display: display,
		alarms:  alarms,
		logger:  logger,
		now:     time.Now,
	}
}

// Run processes frames until the stream ends, 'q' is pressed or ctx is done.
// None of those is an error; a failed detection or drawing call is.
func (l *Loop) Run(ctx context.Context) (Stats, error) {
	mat := gocv.NewMat()
	defer mat.Close()

	l.stats = Stats{Started: l.now()}
	l.logger.Info("📹 Capture loop started for %s", l.camera)

	var runErr error
	for ctx.Err() == nil {
		if ok := l.source.Read(&mat); !ok || mat.Empty() {
			l.logger.Info("End of stream on %s", l.camera)
			break
		}
		l.stats.Frames++

		if _, err := l.ProcessFrame(&mat, l.stats.Frames); err != nil {
			runErr = errors.Wrapf(err, "frame %d", l.stats.Frames)
			break
		}

		if key := l.display.Show(mat); key&0xFF == quitKey {
			l.logger.Info("Quit requested")
			break
		}
	}

	l.stats.Stopped = l.now()
	l.logger.Info("🛑 Capture loop stopped: %d frames, %d alarming, %d alarms dropped",
		l.stats.Frames, l.stats.AlarmFrames, l.stats.DroppedAlarms)
	return l.stats, runErr
}

// ProcessFrame detects, annotates the frame in place and emits an alarm event
// when the frame holds a dangerous object. It reports whether it alarmed.
func (l *Loop) ProcessFrame(mat *gocv.Mat, frame int64) (bool, error) {
	detections, err := l.engine.Detect(*mat)
	if err != nil {
		return false, errors.Wrap(err, "detection failed")
	}

	alarm := false
	frameHeight := mat.Rows()
	for _, det := range detections {
		style := l.policy.Style(det, frameHeight)
		if err := render.DrawDetection(mat, det, style); err != nil {
			return false, err
		}
		if l.policy.Triggers(det) {
			alarm = true
		}
	}

	if !alarm {
		return false, nil
	}

	l.stats.AlarmFrames++
	if err := render.DrawBanner(mat); err != nil {
		return true, err
	}
	l.emit(*mat, frame, detections)
	return true, nil
}

func (l *Loop) emit(mat gocv.Mat, frame int64, detections []dto.Detection) {
	snapshot, err := render.EncodeJPEG(mat)
	if err != nil {
		l.logger.Warning("Alarm snapshot unavailable for frame %d: %v", frame, err)
	}

	event := dto.AlarmEvent{
		ID:         uuid.NewString(),
		Camera:     l.camera,
		Frame:      frame,
		Timestamp:  l.now(),
		Detections: l.policy.Alarming(detections),
		Snapshot:   snapshot,
	}

	if !l.alarms.Emit(event) {
		l.stats.DroppedAlarms++
	}
}
