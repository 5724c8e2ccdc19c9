package detection

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-facefilter/pkg/debug"
	"gocv.io/x/gocv"
)

// YuNet landmark indices. The five keypoints come straight from the model;
// the four box-edge midpoints are derived from its bounding box.
const (
	YuNetRightEye = iota
	YuNetLeftEye
	YuNetNoseTip
	YuNetMouthRight
	YuNetMouthLeft
	YuNetTop
	YuNetBottom
	YuNetLeftEdge
	YuNetRightEdge
	YuNetNumLandmarks
)

// YuNetTopology is the landmark layout emitted by YuNetDetector.
var YuNetTopology = Topology{
	Name:    "yunet",
	Points:  YuNetNumLandmarks,
	Region:  []int{YuNetTop, YuNetBottom, YuNetLeftEdge, YuNetRightEdge},
	Anchors: [2]int{YuNetRightEye, YuNetLeftEye},
}

// YuNetConfig holds YuNet detector configuration
type YuNetConfig struct {
	ModelPath    string  `yaml:"model_path" json:"model_path"`
	NMSThreshold float64 `yaml:"nms_threshold" json:"nms_threshold" validate:"gt=0,lte=1"`
	TopK         int     `yaml:"top_k" json:"top_k" validate:"gte=1"`
	InputWidth   int     `yaml:"input_width" json:"input_width" validate:"gte=1"`
	InputHeight  int     `yaml:"input_height" json:"input_height" validate:"gte=1"`
}

// DefaultYuNetConfig returns production defaults for YuNet
func DefaultYuNetConfig() YuNetConfig {
	return YuNetConfig{
		ModelPath:    "models/face_detection_yunet.onnx",
		NMSThreshold: 0.3,
		TopK:         5000,
		InputWidth:   320,
		InputHeight:  320,
	}
}

// YuNetDetector uses OpenCV's FaceDetectorYN for face and keypoint detection
type YuNetDetector struct {
	detector   gocv.FaceDetectorYN
	config     YuNetConfig
	gate       gate
	configured bool
	mu         sync.Mutex // Protects inference
}

// NewYuNet creates a new YuNet detector using GoCV's built-in FaceDetectorYN
func NewYuNet(cfg YuNetConfig) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	// Initial size is replaced per frame
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"", // No config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(DefaultOptions().MinDetectionConfidence),
		float32(cfg.NMSThreshold),
		cfg.TopK,
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
	}, nil
}

// Configure implements Detector.
func (d *YuNetDetector) Configure(opts Options) error {
	if err := opts.Check(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// The model must pass anything the tracking threshold would accept;
	// the gate applies the stricter threshold when not tracking.
	d.detector.SetScoreThreshold(float32(opts.lowestThreshold()))
	d.gate = gate{opts: opts}
	d.configured = true
	return nil
}

// Detect implements Detector.
func (d *YuNetDetector) Detect(ctx context.Context, img image.Image) ([]LandmarkSet, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.configured {
		return nil, ErrNotConfigured
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, ErrEmptyImage
	}

	imgW := float64(mat.Cols())
	imgH := float64(mat.Rows())

	// Update detector input size to match image
	d.detector.SetInputSize(image.Pt(mat.Cols(), mat.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(mat, &faces)

	sets := make([]LandmarkSet, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		// YuNet output format (15 columns):
		// 0-3: x, y, w, h (bounding box in pixels)
		// 4-13: 5 facial landmarks (x,y pairs)
		// 14: face score
		at := func(c int) float64 { return float64(faces.GetFloatAt(r, c)) }

		points := make([]Landmark, 0, YuNetNumLandmarks)
		for k := 0; k < 5; k++ {
			points = append(points, Landmark{
				X: clamp01(at(4+2*k) / imgW),
				Y: clamp01(at(5+2*k) / imgH),
			})
		}
		points = append(points, boxExtremes(
			at(0)/imgW, at(1)/imgH, at(2)/imgW, at(3)/imgH,
		)...)

		sets = append(sets, LandmarkSet{Points: points, Confidence: at(14)})
	}

	sets = d.gate.apply(sets)
	if len(sets) > 0 {
		debug.TrackLog("👁️  YuNet face (score %.2f)\n", sets[0].Confidence)
	}
	return sets, nil
}

// Topology implements Detector.
func (d *YuNetDetector) Topology() Topology {
	return YuNetTopology
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
