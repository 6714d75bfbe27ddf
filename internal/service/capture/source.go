package capture

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FrameSource yields BGR frames. Read returns false once the stream ends.
type FrameSource interface {
	Read(mat *gocv.Mat) bool
	Close() error
}

// Display shows an annotated frame and returns the key pressed while it was
// up, or -1.
type Display interface {
	Show(mat gocv.Mat) int
	Close() error
}

// Webcam wraps a local capture device.
type Webcam struct {
	capture *gocv.VideoCapture
}

// OpenWebcam opens the capture device with the given index.
func OpenWebcam(device int) (*Webcam, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open capture device %d", device)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("capture device %d is not available", device)
	}
	return &Webcam{capture: capture}, nil
}

func (w *Webcam) Read(mat *gocv.Mat) bool {
	return w.capture.Read(mat)
}

func (w *Webcam) Close() error {
	return w.capture.Close()
}

// Window is an OpenCV highgui window.
type Window struct {
	window *gocv.Window
}

func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title)}
}

// Show draws the frame and polls the keyboard for 1ms.
func (w *Window) Show(mat gocv.Mat) int {
	w.window.IMShow(mat)
	return w.window.WaitKey(1)
}

func (w *Window) Close() error {
	return w.window.Close()
}
