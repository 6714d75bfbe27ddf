package capture

import (
	"context"
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"guardcam/internal/config"
	"guardcam/internal/dto"
	"guardcam/internal/logger"
	"guardcam/internal/service/policy"
)

type fakeSource struct {
	frames int
	read   int
	closed bool
}

func (s *fakeSource) Read(mat *gocv.Mat) bool {
	if s.read >= s.frames {
		return false
	}
	s.read++
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.CopyTo(mat)
	return true
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// fakeEngine returns the scripted detections for each call in turn.
type fakeEngine struct {
	perFrame [][]dto.Detection
	failAt   int // 1-based call that fails, 0 never
	calls    int
}

func (e *fakeEngine) Detect(gocv.Mat) ([]dto.Detection, error) {
	defer func() { e.calls++ }()
	if e.failAt == e.calls+1 {
		return nil, errors.New("inference backend crashed")
	}
	if e.calls < len(e.perFrame) {
		return e.perFrame[e.calls], nil
	}
	return nil, nil
}

type fakeDisplay struct {
	keys  []int
	shown int
}

func (d *fakeDisplay) Show(gocv.Mat) int {
	defer func() { d.shown++ }()
	if d.shown < len(d.keys) {
		return d.keys[d.shown]
	}
	return -1
}

func (d *fakeDisplay) Close() error { return nil }

type recordingEmitter struct {
	events []dto.AlarmEvent
	accept bool
}

func (e *recordingEmitter) Emit(event dto.AlarmEvent) bool {
	if !e.accept {
		return false
	}
	e.events = append(e.events, event)
	return true
}

func newTestLoop(source FrameSource, engine Engine, display Display, emitter Emitter) *Loop {
	p := policy.New(config.Policy{
		DangerousClasses: config.DefaultDangerousClasses,
		HighConfidence:   0.75,
		AlarmConfidence:  0.5,
	})
	return NewLoop("test", source, engine, p, display, emitter, logger.NewDiscard())
}

func detection(label string, conf float64) dto.Detection {
	return dto.Detection{Box: image.Rect(10, 20, 110, 220), Confidence: conf, Label: label}
}

func TestRun_AlarmIsPerFrame(t *testing.T) {
	source := &fakeSource{frames: 3}
	engine := &fakeEngine{perFrame: [][]dto.Detection{
		{detection("knife", 0.8), detection("person", 0.9)},
		{detection("person", 0.9)},
		{detection("knife", 0.4)},
	}}
	emitter := &recordingEmitter{accept: true}

	stats, err := newTestLoop(source, engine, &fakeDisplay{}, emitter).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Frames)
	assert.Equal(t, int64(1), stats.AlarmFrames)
	require.Len(t, emitter.events, 1)

	event := emitter.events[0]
	assert.Equal(t, int64(1), event.Frame)
	assert.Equal(t, "test", event.Camera)
	assert.NotEmpty(t, event.ID)
	assert.NotEmpty(t, event.Snapshot)
	require.Len(t, event.Detections, 1)
	assert.Equal(t, "knife", event.Detections[0].Label)
}

func TestRun_EveryAlarmingFrameEmits(t *testing.T) {
	frames := make([][]dto.Detection, 5)
	for i := range frames {
		frames[i] = []dto.Detection{detection("rifle", 0.55)}
	}
	emitter := &recordingEmitter{accept: true}

	stats, err := newTestLoop(&fakeSource{frames: 5}, &fakeEngine{perFrame: frames}, &fakeDisplay{}, emitter).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(5), stats.AlarmFrames)
	assert.Len(t, emitter.events, 5)

	ids := map[string]bool{}
	for _, e := range emitter.events {
		ids[e.ID] = true
	}
	assert.Len(t, ids, 5)
}

func TestRun_QuitKey(t *testing.T) {
	source := &fakeSource{frames: 10}
	display := &fakeDisplay{keys: []int{-1, 'x', 'q'}}

	stats, err := newTestLoop(source, &fakeEngine{}, display, &recordingEmitter{accept: true}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Frames)
	assert.Equal(t, 3, source.read)
}

func TestRun_EndOfStream(t *testing.T) {
	stats, err := newTestLoop(&fakeSource{frames: 0}, &fakeEngine{}, &fakeDisplay{}, &recordingEmitter{accept: true}).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.Frames)
	assert.False(t, stats.Stopped.Before(stats.Started))
}

func TestRun_DroppedAlarmsCounted(t *testing.T) {
	engine := &fakeEngine{perFrame: [][]dto.Detection{
		{detection("weapon", 0.9)},
		{detection("weapon", 0.9)},
	}}

	stats, err := newTestLoop(&fakeSource{frames: 2}, engine, &fakeDisplay{}, &recordingEmitter{accept: false}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.AlarmFrames)
	assert.Equal(t, int64(2), stats.DroppedAlarms)
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{frames: 3}
	stats, err := newTestLoop(source, &fakeEngine{}, &fakeDisplay{}, &recordingEmitter{accept: true}).Run(ctx)
	require.NoError(t, err)

	assert.Zero(t, stats.Frames)
	assert.Zero(t, source.read)
}

func TestRun_DetectionFailureEndsRun(t *testing.T) {
	source := &fakeSource{frames: 5}
	engine := &fakeEngine{failAt: 2}
	display := &fakeDisplay{}

	stats, err := newTestLoop(source, engine, display, &recordingEmitter{accept: true}).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 2")
	assert.Equal(t, int64(2), stats.Frames)
	assert.Equal(t, 1, display.shown, "failed frame is not shown")
}
