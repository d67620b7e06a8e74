package landmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultDetectorURL = "http://127.0.0.1:8000"

// maxResponseSize caps the detector reply read into memory.
var maxResponseSize int64 = 4 << 20

// HTTPSource asks a detector sidecar for landmarks. The frame is sent as a
// PNG in a multipart form field named "file" to POST {baseURL}/landmarks.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource builds a client for the detector at baseURL. timeout bounds
// each request; zero means no client-side bound.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &HTTPSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type faceJSON struct {
	BBox   []float64    `json:"bbox"` // [x1, y1, x2, y2]
	Points [][2]float64 `json:"points"`
}

type landmarksResponse struct {
	Faces []faceJSON `json:"faces"`
}

func (s *HTTPSource) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "frame.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/landmarks", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrDetectorUnavailable, err)
	}
	if int64(len(body)) > maxResponseSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrDetectorUnavailable, maxResponseSize)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrDetectorUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var lr landmarksResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDetection, err)
	}

	detections := make([]Detection, 0, len(lr.Faces))
	for i, f := range lr.Faces {
		d, err := f.toDetection()
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		detections = append(detections, d)
	}
	return detections, nil
}

func (f faceJSON) toDetection() (Detection, error) {
	var d Detection
	if len(f.Points) != NumPoints {
		return d, fmt.Errorf("%w: got %d points, want %d", ErrMalformedDetection, len(f.Points), NumPoints)
	}
	for i, p := range f.Points {
		d.Points[i] = Point{X: p[0], Y: p[1]}
	}
	if len(f.BBox) == 4 {
		d.Box = image.Rect(int(f.BBox[0]), int(f.BBox[1]), int(f.BBox[2]), int(f.BBox[3]))
	}
	return d, nil
}
