package detector

import (
	"image"
	"runtime"
	"time"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"livedetect/internal/models"
)

type ONNXOptions struct {
	ModelPath string
	// LibraryPath points at the onnxruntime shared library. Empty uses the
	// platform default lookup.
	LibraryPath  string
	InputSize    int
	NumClasses   int
	IoUThreshold float64
	Threads      int
}

func (o *ONNXOptions) setDefaults() {
	if o.InputSize == 0 {
		o.InputSize = 640
	}
	if o.NumClasses == 0 {
		o.NumClasses = len(models.COCOLabels)
	}
	if o.IoUThreshold == 0 {
		o.IoUThreshold = 0.45
	}
	if o.Threads == 0 {
		o.Threads = runtime.NumCPU()
	}
}

// ONNXDetector runs a YOLOv8 export through onnxruntime. It owns the runtime
// environment for its lifetime and is not safe for concurrent Detect calls.
type ONNXDetector struct {
	opts   ONNXOptions
	logger *zap.SugaredLogger

	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func NewONNXDetector(opts ONNXOptions, logger *zap.SugaredLogger) (*ONNXDetector, error) {
	opts.setDefaults()
	logger.Infof("loading model %s…", opts.ModelPath)

	if opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(opts.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, errors.Wrap(err, "initialize onnxruntime")
	}

	d := &ONNXDetector{opts: opts, logger: logger}
	if err := d.initSession(); err != nil {
		return nil, multierr.Combine(err, ort.DestroyEnvironment())
	}
	logger.Infow("model ready", "input", opts.InputSize, "classes", opts.NumClasses)
	return d, nil
}

func (d *ONNXDetector) initSession() error {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return errors.Wrap(err, "create session options")
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(d.opts.Threads); err != nil {
		return errors.Wrap(err, "set intra-op threads")
	}

	size := int64(d.opts.InputSize)
	inputShape := ort.NewShape(1, 3, size, size)
	outputShape := ort.NewShape(1, int64(4+d.opts.NumClasses), int64(AnchorCount(d.opts.InputSize)))

	d.input, err = ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return errors.Wrap(err, "create input tensor")
	}
	d.output, err = ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		d.input.Destroy()
		return errors.Wrap(err, "create output tensor")
	}

	d.session, err = ort.NewAdvancedSession(
		d.opts.ModelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.ArbitraryTensor{d.input},
		[]ort.ArbitraryTensor{d.output},
		options,
	)
	if err != nil {
		d.input.Destroy()
		d.output.Destroy()
		return errors.Wrapf(err, "create session for %s", d.opts.ModelPath)
	}
	return nil
}

func (d *ONNXDetector) Detect(frame image.Image, confThreshold float64) (*models.Result, error) {
	size := frame.Bounds().Size()

	start := time.Now()
	if err := Preprocess(frame, d.opts.InputSize, d.input.GetData()); err != nil {
		return nil, errors.Wrap(err, "prepare input")
	}
	prep := time.Since(start)

	if err := d.session.Run(); err != nil {
		return nil, errors.Wrap(err, "model inference")
	}
	infer := time.Since(start) - prep

	dets, err := DecodeYOLOv8(d.output.GetData(), d.opts.NumClasses, d.opts.InputSize, size, confThreshold)
	if err != nil {
		return nil, errors.Wrap(err, "process predictions")
	}
	dets = NonMaxSuppression(dets, d.opts.IoUThreshold)

	d.logger.Debugw("detect", "preprocess", prep, "inference", infer, "total", time.Since(start), "boxes", len(dets))
	return models.NewResult(size, dets), nil
}

func (d *ONNXDetector) Close() error {
	var err error
	if d.session != nil {
		err = multierr.Append(err, d.session.Destroy())
	}
	if d.input != nil {
		err = multierr.Append(err, d.input.Destroy())
	}
	if d.output != nil {
		err = multierr.Append(err, d.output.Destroy())
	}
	return multierr.Append(err, ort.DestroyEnvironment())
}
