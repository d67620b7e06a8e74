// Package landmark is the boundary to the facial landmark detector.
//
// # Overview
//
// The detector itself is an external black box: given an image it returns
// zero, one or many face detections, each with exactly 68 labelled 2-D points
// in the common 68-point numbering (0-16 jaw, 17-26 brows, 27-35 nose,
// 36-47 eyes, 48-67 mouth). This package defines that contract (Source) and
// the plumbing around it:
//
//   - LoadImage decodes a captured frame (JPEG, PNG, GIF, BMP, WebP).
//   - Preprocess downscales the frame and converts it to grayscale before
//     detection.
//   - Annotate draws the detected points on a copy of the frame for operator
//     preview.
//   - HTTPSource talks to a detector sidecar over HTTP.
//   - StaticSource returns canned detections (embedding and tests).
//
// # Errors
//
// ErrMalformedDetection wraps common.ErrDetectionFault. ErrDetectorUnavailable
// (transport failures, non-200 replies, oversized bodies) wraps
// common.ErrIOFault: recapturing does not help when the sidecar is down.
package landmark
