package landmark

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxDimension bounds the longest side of a frame fed to the detector.
const DefaultMaxDimension = 800

// LoadImage reads and decodes the image stored at path.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// Preprocess prepares a frame for the detector: frames whose longest side
// exceeds maxDim are downscaled keeping aspect ratio, and the result is
// converted to 8-bit grayscale. maxDim <= 0 disables downscaling.
//
// Landmarks found on the returned image live in its (possibly scaled)
// coordinate space. Signatures are scale-invariant, so this does not matter
// for matching.
func Preprocess(img image.Image, maxDim int) *image.Gray {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	newWidth, newHeight := width, height
	if maxDim > 0 && max(width, height) > maxDim {
		if width >= height {
			newWidth = maxDim
			newHeight = max(1, height*maxDim/width)
		} else {
			newHeight = maxDim
			newWidth = max(1, width*maxDim/height)
		}
	}

	gray := image.NewGray(image.Rect(0, 0, newWidth, newHeight))
	if newWidth == width && newHeight == height {
		draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
		return gray
	}
	draw.CatmullRom.Scale(gray, gray.Bounds(), img, bounds, draw.Src, nil)
	return gray
}
