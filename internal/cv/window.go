package cv

import (
	"image"

	"gocv.io/x/gocv"

	"livedetect/processing/session"
)

const keyEscape = 27

// Window is a session.Display backed by an OpenCV HighGUI window. Show must
// be called from the thread that created the window.
type Window struct {
	window *gocv.Window
	key    session.Key
}

func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title)}
}

func (w *Window) Show(frame image.Image, _ session.Stats) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return err
	}
	defer mat.Close()

	w.window.IMShow(mat)
	w.key = keyFromCode(w.window.WaitKey(1))
	if !w.window.IsOpen() {
		w.key = session.KeyQuit
	}
	return nil
}

func (w *Window) PollKey() session.Key {
	k := w.key
	w.key = session.KeyNone
	return k
}

func (w *Window) Close() error {
	return w.window.Close()
}

func keyFromCode(code int) session.Key {
	switch {
	case code < 0:
		return session.KeyNone
	case code == keyEscape:
		return session.KeyQuit
	}
	return session.KeyFromRune(rune(code & 0xff))
}
