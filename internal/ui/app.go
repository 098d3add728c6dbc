package ui

import (
	"fmt"
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"livedetect/internal/config"
	"livedetect/internal/ui/cwidget"
	"livedetect/processing/session"
)

const (
	displayRate   = 60
	statInterval  = 200 * time.Millisecond
	keyBufferSize = 8
)

// DetectApp is a session.Display rendering into a fyne window. The session
// runs on its own goroutine while fyne owns the main thread; frames and
// stats are handed over under mu and painted by a ticker via fyne.Do.
type DetectApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	config *config.Config
	logger *zap.SugaredLogger

	videoCanvas     *canvas.Image
	fpsLabel        *widget.Label
	inferenceLabel  *widget.Label
	ageLabel        *widget.Label
	detectionsLabel *widget.Label

	mu        sync.Mutex
	lastFrame image.Image
	lastStats session.Stats
	fresh     bool

	keys     chan session.Key
	stopChan chan struct{}
}

func CreateApp(cfg *config.Config, logger *zap.SugaredLogger) *DetectApp {
	return newDetectApp(app.New(), cfg, logger)
}

func newDetectApp(a fyne.App, cfg *config.Config, logger *zap.SugaredLogger) *DetectApp {
	w := a.NewWindow(cfg.WindowTitle)

	w.Resize(fyne.NewSize(1200, 600))

	return &DetectApp{
		fyneApp:  a,
		mainWin:  w,
		config:   cfg,
		logger:   logger,
		keys:     make(chan session.Key, keyBufferSize),
		stopChan: make(chan struct{}),
	}
}

func (a *DetectApp) Show(frame image.Image, stats session.Stats) error {
	a.mu.Lock()
	a.lastFrame = frame
	a.lastStats = stats
	a.fresh = true
	a.mu.Unlock()
	return nil
}

func (a *DetectApp) PollKey() session.Key {
	select {
	case k := <-a.keys:
		return k
	default:
		return session.KeyNone
	}
}

// SendKey queues a command for the session. Commands beyond the buffer are
// dropped.
func (a *DetectApp) SendKey(k session.Key) {
	select {
	case a.keys <- k:
	default:
		a.logger.Debugw("dropping key command", "key", string(k))
	}
}

// Run shows the window and drives run on a separate goroutine. The window
// closes when run returns, and closing the window asks run to quit.
func (a *DetectApp) Run(run func() error) error {
	a.build()

	errCh := make(chan error, 1)
	go func() {
		err := run()
		errCh <- err
		fyne.Do(func() {
			a.fyneApp.Quit()
		})
	}()
	go a.runPlayerLoop()
	go a.runStatLoop()

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()

	close(a.stopChan)
	a.SendKey(session.KeyQuit)
	return <-errCh
}

func (a *DetectApp) build() {
	a.videoCanvas = canvas.NewImageFromImage(nil)
	a.videoCanvas.FillMode = canvas.ImageFillContain
	a.videoCanvas.SetMinSize(fyne.NewSize(float32(a.config.Width), float32(a.config.Height)))

	a.fpsLabel = widget.NewLabel(session.Stats{}.RenderFPSText())
	a.inferenceLabel = widget.NewLabel(formatInference(a.config.InferenceFPS, 0))
	a.ageLabel = widget.NewLabel(session.Stats{}.DetectionAgeText())
	a.detectionsLabel = widget.NewLabel(formatDetections(0))

	videoContainer := container.NewBorder(
		container.NewHBox(
			a.fpsLabel, widget.NewSeparator(),
			a.inferenceLabel, widget.NewSeparator(),
			a.ageLabel, widget.NewSeparator(),
			a.detectionsLabel,
		),
		nil, nil, nil,
		a.videoCanvas,
	)

	confInput := cwidget.NewFloatInput(
		"Confidence",
		"0.0 - 1.0",
		a.config.GetConfThreshold(),
		0, 1,
		a.config.SetConfThreshold,
	)

	sidebar := container.NewVBox(
		widget.NewLabelWithStyle("Detection", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		confInput,
		widget.NewSeparator(),
		widget.NewButtonWithIcon("Capture", theme.MediaPhotoIcon(), func() {
			a.SendKey(session.KeyCapture)
		}),
		widget.NewButtonWithIcon("Quit", theme.CancelIcon(), func() {
			a.SendKey(session.KeyQuit)
		}),
	)

	split := container.NewHSplit(
		container.NewPadded(sidebar),
		container.NewPadded(videoContainer),
	)
	split.SetOffset(0.2)

	a.mainWin.SetContent(split)

	a.mainWin.Canvas().SetOnTypedRune(a.typedRune)
	a.mainWin.SetCloseIntercept(a.closeRequested)
}

func (a *DetectApp) typedRune(r rune) {
	if k := session.KeyFromRune(r); k != session.KeyNone {
		a.SendKey(k)
	}
}

// closeRequested turns the window close button into a quit command; the
// window itself goes away once the session has stopped.
func (a *DetectApp) closeRequested() {
	a.SendKey(session.KeyQuit)
}

func (a *DetectApp) runStatLoop() {
	uiTicker := time.NewTicker(statInterval)
	defer uiTicker.Stop()

	for {
		select {
		case <-uiTicker.C:
			a.mu.Lock()
			stats := a.lastStats
			a.mu.Unlock()

			fyne.Do(func() {
				a.fpsLabel.SetText(stats.RenderFPSText())
				a.inferenceLabel.SetText(formatInference(stats.TargetInferenceFPS, stats.InferenceLatency))
				a.ageLabel.SetText(stats.DetectionAgeText())
				a.detectionsLabel.SetText(formatDetections(stats.Detections))
			})
		case <-a.stopChan:
			return
		}
	}
}

func (a *DetectApp) runPlayerLoop() {
	displayTicker := time.NewTicker(time.Second / displayRate)
	defer displayTicker.Stop()

	for {
		select {
		case <-displayTicker.C:
			a.mu.Lock()
			frame, fresh := a.lastFrame, a.fresh
			a.fresh = false
			a.mu.Unlock()

			if fresh && frame != nil {
				fyne.Do(func() {
					a.videoCanvas.Image = frame
					a.videoCanvas.Refresh()
				})
			}

		case <-a.stopChan:
			return
		}
	}
}

func formatInference(target float64, latency time.Duration) string {
	return fmt.Sprintf("Inference: %.1f FPS, %d ms", target, latency.Milliseconds())
}

func formatDetections(n int) string {
	return fmt.Sprintf("Objects: %d", n)
}
