package detection

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	pigo "github.com/esimov/pigo/core"
	"github.com/teslashibe/go-facefilter/pkg/debug"
)

// Pigo landmark indices. Pupils are present only when the puploc cascade
// is loaded and both pupils were found, so a set may hold just the first
// four. Mouth corners follow the pupils when the flploc cascades are loaded
// and both corners were found.
const (
	PigoTop = iota
	PigoBottom
	PigoLeftEdge
	PigoRightEdge
	PigoLeftPupil
	PigoRightPupil
	PigoMouthLeft
	PigoMouthRight
	PigoNumLandmarks
)

// mouthCascade is the flploc cascade for a mouth corner. The flipped run
// finds the opposite corner.
const mouthCascade = "lp84"

// PigoTopology is the landmark layout emitted by PigoDetector.
var PigoTopology = Topology{
	Name:    "pigo",
	Points:  PigoNumLandmarks,
	Region:  []int{PigoTop, PigoBottom, PigoLeftEdge, PigoRightEdge},
	Anchors: [2]int{PigoLeftPupil, PigoRightPupil},
}

// PigoConfig holds Pigo detector configuration
type PigoConfig struct {
	FaceCascade   string  `yaml:"face_cascade" json:"face_cascade"`
	PuplocCascade string  `yaml:"puploc_cascade" json:"puploc_cascade"` // Optional
	LandmarkDir   string  `yaml:"landmark_dir" json:"landmark_dir"`     // Optional flploc cascade directory, needs puploc
	MinSize       int     `yaml:"min_size" json:"min_size" validate:"gte=1"`
	MaxSize       int     `yaml:"max_size" json:"max_size" validate:"gtefield=MinSize"`
	ShiftFactor   float64 `yaml:"shift_factor" json:"shift_factor" validate:"gt=0,lte=1"`
	ScaleFactor   float64 `yaml:"scale_factor" json:"scale_factor" validate:"gt=1"`
	IoUThreshold  float64 `yaml:"iou_threshold" json:"iou_threshold" validate:"gt=0,lte=1"`
	QualityScale  float64 `yaml:"quality_scale" json:"quality_scale" validate:"gt=0"` // Q at which confidence reaches 1
	PupilPerturbs int     `yaml:"pupil_perturbs" json:"pupil_perturbs" validate:"gte=1"`
}

// DefaultPigoConfig returns defaults tuned for a webcam at arm's length.
func DefaultPigoConfig() PigoConfig {
	return PigoConfig{
		FaceCascade:   "models/facefinder",
		PuplocCascade: "models/puploc",
		MinSize:       60,
		MaxSize:       1000,
		ShiftFactor:   0.1,
		ScaleFactor:   1.1,
		IoUThreshold:  0.2,
		QualityScale:  100,
		PupilPerturbs: 63,
	}
}

// PigoDetector is a pure-Go detector built on the pigo cascades.
type PigoDetector struct {
	classifier *pigo.Pigo
	puploc     *pigo.PuplocCascade
	mouth      *pigo.PuplocCascade
	config     PigoConfig
	gate       gate
	configured bool
	mu         sync.Mutex
}

// NewPigo loads the face cascade and, when configured, the pupil cascade.
func NewPigo(cfg PigoConfig) (*PigoDetector, error) {
	data, err := os.ReadFile(cfg.FaceCascade)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.FaceCascade)
	}
	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack face cascade: %w", err)
	}

	d := &PigoDetector{classifier: classifier, config: cfg}

	if cfg.PuplocCascade != "" {
		data, err := os.ReadFile(cfg.PuplocCascade)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.PuplocCascade)
		}
		d.puploc, err = pigo.NewPuplocCascade().UnpackCascade(data)
		if err != nil {
			return nil, fmt.Errorf("unpack puploc cascade: %w", err)
		}
	}

	if cfg.LandmarkDir != "" {
		if d.puploc == nil {
			return nil, fmt.Errorf("landmark cascades need the puploc cascade")
		}
		flpcs, err := pigo.NewPuplocCascade().ReadCascadeDir(cfg.LandmarkDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrModelNotFound, cfg.LandmarkDir, err)
		}
		cascades := flpcs[mouthCascade]
		if len(cascades) == 0 || cascades[0].PuplocCascade == nil {
			return nil, fmt.Errorf("%w: %s/%s", ErrModelNotFound, cfg.LandmarkDir, mouthCascade)
		}
		d.mouth = cascades[0].PuplocCascade
	}
	return d, nil
}

// Configure implements Detector.
func (d *PigoDetector) Configure(opts Options) error {
	if err := opts.Check(); err != nil {
		return err
	}
	d.mu.Lock()
	d.gate = gate{opts: opts}
	d.configured = true
	d.mu.Unlock()
	return nil
}

// Detect implements Detector.
func (d *PigoDetector) Detect(ctx context.Context, img image.Image) ([]LandmarkSet, error) {
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

	src := pigo.ImgToNRGBA(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()
	params := pigo.ImageParams{
		Pixels: pigo.RgbToGrayscale(src),
		Rows:   rows,
		Cols:   cols,
		Dim:    cols,
	}

	dets := d.classifier.RunCascade(pigo.CascadeParams{
		MinSize:     d.config.MinSize,
		MaxSize:     d.config.MaxSize,
		ShiftFactor: d.config.ShiftFactor,
		ScaleFactor: d.config.ScaleFactor,
		ImageParams: params,
	}, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.config.IoUThreshold)

	w, h := float64(cols), float64(rows)
	sets := make([]LandmarkSet, 0, len(dets))
	for _, det := range dets {
		// Row/Col is the face center, Scale the face diameter
		half := float64(det.Scale) / 2
		points := boxExtremes(
			(float64(det.Col)-half)/w, (float64(det.Row)-half)/h,
			float64(det.Scale)/w, float64(det.Scale)/h,
		)
		for i := range points {
			points[i].X, points[i].Y = clamp01(points[i].X), clamp01(points[i].Y)
		}

		if left, right := d.pupils(det, params); left != nil && right != nil {
			points = append(points,
				Landmark{X: float64(left.Col) / w, Y: float64(left.Row) / h},
				Landmark{X: float64(right.Col) / w, Y: float64(right.Row) / h},
			)
			if ml, mr := d.mouthCorners(left, right, params); ml != nil && mr != nil {
				points = append(points,
					Landmark{X: float64(ml.Col) / w, Y: float64(ml.Row) / h},
					Landmark{X: float64(mr.Col) / w, Y: float64(mr.Row) / h},
				)
			}
		}

		sets = append(sets, LandmarkSet{
			Points:     points,
			Confidence: clamp01(float64(det.Q) / d.config.QualityScale),
		})
	}

	sets = d.gate.apply(sets)
	if len(sets) > 0 {
		debug.TrackLog("👁️  Pigo face (q %.2f, %d points)\n", sets[0].Confidence, len(sets[0].Points))
	}
	return sets, nil
}

// pupils runs the puploc cascade on the expected eye regions of det.
func (d *PigoDetector) pupils(det pigo.Detection, params pigo.ImageParams) (*pigo.Puploc, *pigo.Puploc) {
	if d.puploc == nil {
		return nil, nil
	}
	find := func(colSign float64) *pigo.Puploc {
		pl := pigo.Puploc{
			Row:      det.Row - int(0.085*float64(det.Scale)),
			Col:      det.Col + int(colSign*0.185*float64(det.Scale)),
			Scale:    float32(det.Scale) * 0.4,
			Perturbs: d.config.PupilPerturbs,
		}
		eye := d.puploc.RunDetector(pl, params, 0.0, false)
		if eye == nil || eye.Row <= 0 || eye.Col <= 0 {
			return nil
		}
		return eye
	}
	return find(-1), find(1)
}

// mouthCorners runs the flploc mouth cascade both ways from the pupils.
// Corners come back ordered by image x.
func (d *PigoDetector) mouthCorners(left, right *pigo.Puploc, params pigo.ImageParams) (*pigo.Puploc, *pigo.Puploc) {
	if d.mouth == nil {
		return nil, nil
	}
	find := func(flip bool) *pigo.Puploc {
		p := d.mouth.GetLandmarkPoint(left, right, params, d.config.PupilPerturbs, flip)
		if p == nil || p.Row <= 0 || p.Col <= 0 {
			return nil
		}
		return p
	}
	a, b := find(false), find(true)
	if a != nil && b != nil && a.Col > b.Col {
		a, b = b, a
	}
	return a, b
}

// Topology implements Detector.
func (d *PigoDetector) Topology() Topology {
	return PigoTopology
}

// Close implements Detector. Cascades are plain memory.
func (d *PigoDetector) Close() error {
	return nil
}
