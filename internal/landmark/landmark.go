package landmark

import (
	"context"
	"fmt"
	"image"

	"github.com/dmitrijs2005/facegate/internal/common"
)

// NumPoints is the number of landmarks every detection carries.
const NumPoints = 68

var (
	ErrMalformedDetection  = fmt.Errorf("%w: malformed detection", common.ErrDetectionFault)
	ErrDetectorUnavailable = fmt.Errorf("%w: landmark detector unavailable", common.ErrIOFault)
)

// Point is one landmark in image coordinates.
type Point struct {
	X float64
	Y float64
}

// Detection is one face found in an image: its bounding box and the
// ordered landmark points, indexed by the fixed 68-point numbering.
type Detection struct {
	Box    image.Rectangle
	Points [NumPoints]Point
}

// Source maps an image to the faces found in it. An empty result is not an
// error; deciding what zero or several faces mean is up to the caller.
type Source interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// StaticSource always returns the same detections, whatever the image.
type StaticSource struct {
	Detections []Detection
	Err        error
}

func (s StaticSource) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]Detection, len(s.Detections))
	copy(out, s.Detections)
	return out, nil
}
