package ai

import (
	"fmt"
	"image"
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"guardcam/internal/config"
	"guardcam/internal/dto"
	"guardcam/internal/logger"
)

// ErrNetNotLoaded is returned by Detect when the network failed to initialize.
var ErrNetNotLoaded = errors.New("detection network not initialized")

// maxWH offsets boxes per class before NMS so boxes of different classes never suppress each other.
const maxWH = 4096

// DetectorService runs a YOLOv5 ONNX export through OpenCV's DNN module.
type DetectorService struct {
	net        gocv.Net
	classNames []string
	modelPath  string
	cfg        config.Inference
	logger     *logger.Logger
}

// NewDetectorService loads the network and the class names. A missing model
// is an error since the loop has nothing to do without it.
func NewDetectorService(cfg config.Inference, logger *logger.Logger) (*DetectorService, error) {
	service := &DetectorService{
		modelPath: cfg.ModelPath,
		cfg:       cfg,
		logger:    logger,
	}

	names, err := LoadClassNames(cfg.ClassesPath)
	if err != nil {
		return nil, err
	}
	service.classNames = names

	if err := service.initializeNet(); err != nil {
		return nil, err
	}

	return service, nil
}

// initializeNet loads the ONNX network and sets backend/target preferences.
func (s *DetectorService) initializeNet() error {
	if _, err := os.Stat(s.modelPath); os.IsNotExist(err) {
		return errors.Errorf("model file not found: %s", s.modelPath)
	}

	net := gocv.ReadNetFromONNX(s.modelPath)
	if net.Empty() {
		return errors.New("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return errors.New("failed to set preferable backend or target")
	}

	s.net = net
	s.logger.Info("Detection network initialized: %s (%d classes)", s.modelPath, len(s.classNames))
	return nil
}

// Detect runs one forward pass on a BGR frame and returns the boxes left after
// non-max suppression, in frame coordinates.
func (s *DetectorService) Detect(frame gocv.Mat) ([]dto.Detection, error) {
	if s.net.Empty() {
		return nil, ErrNetNotLoaded
	}
	if frame.Empty() {
		return nil, errors.New("frame is empty")
	}

	size := s.cfg.InputSize
	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")

	output := s.net.Forward("")
	defer output.Close()

	// YOLOv5 output: [1, N, 5+classes] -> cx, cy, w, h, objectness, class scores...
	dims := output.Size()
	if len(dims) != 3 {
		return nil, errors.Errorf("unexpected output shape %v", dims)
	}
	cols := dims[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read network output")
	}

	scaleX := float64(frame.Cols()) / float64(size)
	scaleY := float64(frame.Rows()) / float64(size)
	cands := decodeCandidates(data, cols, s.cfg.ConfidenceThreshold, scaleX, scaleY, frame.Cols(), frame.Rows())
	if len(cands) == 0 {
		return []dto.Detection{}, nil
	}

	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		offset := image.Pt(c.classID*maxWH, c.classID*maxWH)
		boxes[i] = c.box.Add(offset)
		scores[i] = c.score
	}

	keep := gocv.NMSBoxes(boxes, scores, s.cfg.ConfidenceThreshold, s.cfg.IoUThreshold)

	results := make([]dto.Detection, 0, len(keep))
	for _, idx := range keep {
		c := cands[idx]
		results = append(results, dto.Detection{
			Box:        c.box,
			Confidence: float64(c.score),
			Label:      s.ClassLabel(c.classID),
			ClassID:    c.classID,
		})
	}

	return results, nil
}

// ClassLabel maps a class index to the name from the model metadata.
func (s *DetectorService) ClassLabel(classID int) string {
	if classID >= 0 && classID < len(s.classNames) {
		return s.classNames[classID]
	}
	return fmt.Sprintf("unknown_%d", classID)
}

// ClassNames returns the model's class names.
func (s *DetectorService) ClassNames() []string {
	return s.classNames
}

// Close releases the network.
func (s *DetectorService) Close() {
	if !s.net.Empty() {
		s.net.Close()
	}
}

type candidate struct {
	box     image.Rectangle
	score   float32
	classID int
}

// decodeCandidates converts raw YOLOv5 rows into frame-space boxes whose
// objectness*class score clears the threshold.
func decodeCandidates(data []float32, cols int, threshold float32, scaleX, scaleY float64, frameW, frameH int) []candidate {
	if cols <= 5 {
		return nil
	}

	var cands []candidate
	for off := 0; off+cols <= len(data); off += cols {
		row := data[off : off+cols]

		objectness := row[4]
		if objectness <= threshold {
			continue
		}

		classID := 0
		best := row[5]
		for j := 6; j < cols; j++ {
			if row[j] > best {
				best = row[j]
				classID = j - 5
			}
		}

		score := objectness * best
		if score <= threshold {
			continue
		}

		cx, cy, w, h := float64(row[0]), float64(row[1]), float64(row[2]), float64(row[3])
		x1 := clamp(int((cx-w/2)*scaleX), 0, frameW)
		y1 := clamp(int((cy-h/2)*scaleY), 0, frameH)
		x2 := clamp(int((cx+w/2)*scaleX), 0, frameW)
		y2 := clamp(int((cy+h/2)*scaleY), 0, frameH)

		cands = append(cands, candidate{
			box:     image.Rect(x1, y1, x2, y2),
			score:   score,
			classID: classID,
		})
	}

	return cands
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
