// Package features turns a face's 68 landmarks into a fixed-length signature.
package features

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/dmitrijs2005/facegate/internal/common"
	"github.com/dmitrijs2005/facegate/internal/landmark"
	"github.com/dmitrijs2005/facegate/internal/logging"
)

var (
	ErrNoDetection        = fmt.Errorf("%w: no face detected", common.ErrDetectionFault)
	ErrAmbiguousDetection = fmt.Errorf("%w: more than one face detected", common.ErrDetectionFault)
	ErrDegenerateGeometry = fmt.Errorf("%w: degenerate landmark geometry", common.ErrDetectionFault)
)

// SelectedPoints are the landmarks whose pairwise distances enter the
// signature: jaw, eye corners, nose width, mouth corners, lower lip, chin,
// brow ends and brow middles.
var SelectedPoints = [...]int{0, 1, 2, 3, 4, 5, 36, 39, 42, 45, 31, 35, 48, 54, 57, 8, 17, 26, 19, 24}

// AngleTriplets lists the (endpoint, vertex, endpoint) landmarks of the
// signature angles. The angle is measured at the middle point.
var AngleTriplets = [...][3]int{
	{36, 39, 42}, // left eye
	{42, 45, 36}, // right eye
	{31, 30, 35}, // nose
	{48, 51, 54}, // mouth
	{0, 8, 16},   // jaw
}

// Outer eye corners, the normalization baseline.
const (
	refLeft  = 36
	refRight = 45
)

// NumDistances is C(len(SelectedPoints), 2).
const NumDistances = len(SelectedPoints) * (len(SelectedPoints) - 1) / 2

// Length is the size of every signature produced by Compute.
const Length = NumDistances + len(AngleTriplets)

func dist(a, b landmark.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// angleAt returns the angle ABC at b in degrees, within (0, 180]. Arms of
// zero length or pointing the same way are degenerate.
func angleAt(a, b, c landmark.Point) (float64, error) {
	bax, bay := a.X-b.X, a.Y-b.Y
	bcx, bcy := c.X-b.X, c.Y-b.Y

	n := math.Hypot(bax, bay) * math.Hypot(bcx, bcy)
	if n == 0 {
		return 0, ErrDegenerateGeometry
	}
	cos := (bax*bcx + bay*bcy) / n
	cos = math.Max(-1, math.Min(1, cos))
	deg := math.Acos(cos) * 180 / math.Pi
	if !(deg > 0) {
		return 0, ErrDegenerateGeometry
	}
	return deg, nil
}

// Compute derives the signature of a single detection. Pair distances come
// first in ascending position order over SelectedPoints, divided by the
// outer eye corner distance, then the AngleTriplets angles.
func Compute(d landmark.Detection) (Signature, error) {
	p := d.Points

	ref := dist(p[refLeft], p[refRight])
	if ref == 0 || math.IsNaN(ref) || math.IsInf(ref, 0) {
		return nil, fmt.Errorf("%w: zero reference distance", ErrDegenerateGeometry)
	}

	sig := make(Signature, 0, Length)
	for i := 0; i < len(SelectedPoints); i++ {
		for j := i + 1; j < len(SelectedPoints); j++ {
			sig = append(sig, dist(p[SelectedPoints[i]], p[SelectedPoints[j]])/ref)
		}
	}

	for _, t := range AngleTriplets {
		a, err := angleAt(p[t[0]], p[t[1]], p[t[2]])
		if err != nil {
			return nil, fmt.Errorf("%w: triplet %v", err, t)
		}
		sig = append(sig, a)
	}

	for i, v := range sig {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: component %d is not finite", ErrDegenerateGeometry, i)
		}
	}
	return sig, nil
}

// FromDetections requires exactly one face and computes its signature.
func FromDetections(ds []landmark.Detection) (Signature, error) {
	d, err := Single(ds)
	if err != nil {
		return nil, err
	}
	return Compute(d)
}

// Single returns the only detection in ds.
func Single(ds []landmark.Detection) (landmark.Detection, error) {
	switch len(ds) {
	case 0:
		return landmark.Detection{}, ErrNoDetection
	case 1:
		return ds[0], nil
	default:
		return landmark.Detection{}, fmt.Errorf("%w: %d faces", ErrAmbiguousDetection, len(ds))
	}
}

// Extractor runs the full capture pipeline: preprocess, detect, compute.
type Extractor struct {
	source landmark.Source
	maxDim int
	logger logging.Logger
}

func NewExtractor(source landmark.Source, maxDim int, logger logging.Logger) *Extractor {
	return &Extractor{source: source, maxDim: maxDim, logger: logger}
}

// Detect preprocesses img and returns the single face found on it together
// with the frame the landmarks refer to.
func (e *Extractor) Detect(ctx context.Context, img image.Image) (landmark.Detection, *image.Gray, error) {
	frame := landmark.Preprocess(img, e.maxDim)

	ds, err := e.source.Detect(ctx, frame)
	if err != nil {
		return landmark.Detection{}, nil, err
	}
	e.logger.Debug(ctx, "landmarks detected", "faces", len(ds))

	d, err := Single(ds)
	if err != nil {
		return landmark.Detection{}, nil, err
	}
	return d, frame, nil
}

// Extract returns the signature of the single face in img.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (Signature, error) {
	d, _, err := e.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	return Compute(d)
}

