package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	// Attachment decoders for the formats Takeout exports.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// upscaleBelow is the dimension under which images are enlarged
	// before recognition. Phone snapshots of receipts and whiteboards
	// often come in small enough that Tesseract misreads them.
	upscaleBelow = 1200

	// contrastFactor stretches pixel values away from the image mean.
	contrastFactor = 2.0
)

// sharpenKernel is a 3x3 sharpening convolution, applied with a divisor
// of 16 so overall brightness is preserved.
var sharpenKernel = [9]int32{
	-2, -2, -2,
	-2, 32, -2,
	-2, -2, -2,
}

// Preprocess loads the image at path and prepares it for recognition:
// small images are upscaled, then the image is converted to grayscale,
// contrast-boosted, and sharpened. The result is returned PNG-encoded.
func Preprocess(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}

	if b := src.Bounds(); b.Dx() < upscaleBelow && b.Dy() < upscaleBelow {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*2, b.Dy()*2))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		src = dst
	}

	gray := toGray(src)
	adjustContrast(gray, contrastFactor)
	gray = sharpen(gray)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encoding preprocessed image: %w", err)
	}
	return buf.Bytes(), nil
}

func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)
	return gray
}

// adjustContrast scales every pixel's distance from the image mean by
// factor, in place.
func adjustContrast(g *image.Gray, factor float64) {
	if len(g.Pix) == 0 {
		return
	}
	var sum uint64
	for _, p := range g.Pix {
		sum += uint64(p)
	}
	mean := float64(sum) / float64(len(g.Pix))

	var lut [256]uint8
	for i := range lut {
		lut[i] = clampByte(mean + factor*(float64(i)-mean))
	}
	for i, p := range g.Pix {
		g.Pix[i] = lut[p]
	}
}

// sharpen convolves the interior with sharpenKernel; border pixels are
// carried over unchanged.
func sharpen(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	copy(out.Pix, g.Pix)
	if w < 3 || h < 3 {
		return out
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var acc int32
			k := 0
			for dy := -1; dy <= 1; dy++ {
				row := (y+dy)*g.Stride + x - 1
				for dx := 0; dx < 3; dx++ {
					acc += sharpenKernel[k] * int32(g.Pix[row+dx])
					k++
				}
			}
			out.Pix[y*out.Stride+x] = clampByte(float64(acc) / 16)
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
