// Package preprocess prepares screenshot variants for recognition. Several
// variants of the same image are recognised and their tokens pooled.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Options selects which variants are produced besides the grayscale base.
type Options struct {
	Threshold bool
	Upscale   bool
	// MaxUpscaleWidth skips the upscale variant for images already this wide.
	MaxUpscaleWidth int
}

func DefaultOptions() Options {
	return Options{Threshold: true, Upscale: true, MaxUpscaleWidth: 2000}
}

// Decode parses PNG, JPEG, GIF or WebP bytes.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Variants returns the grayscale image followed by the optional thresholded
// and upscaled renditions.
func Variants(img image.Image, opts Options) []image.Image {
	gray := Grayscale(img)
	out := []image.Image{gray}
	if opts.Threshold {
		out = append(out, Binarize(gray, OtsuThreshold(gray)))
	}
	if opts.Upscale && (opts.MaxUpscaleWidth <= 0 || gray.Bounds().Dx() < opts.MaxUpscaleWidth) {
		out = append(out, Scale(gray, 2))
	}
	return out
}

// Encoded is a PNG variant and its width relative to the source image.
type Encoded struct {
	Data  []byte
	Scale float64
}

// EncodeVariants decodes data, builds the variants and encodes each as PNG.
func EncodeVariants(data []byte, opts Options) ([]Encoded, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodeImages(img.Bounds().Dx(), Variants(img, opts))
}

// EncodeImages encodes imgs as PNG. Scale is taken against sourceWidth.
func EncodeImages(sourceWidth int, imgs []image.Image) ([]Encoded, error) {
	out := make([]Encoded, 0, len(imgs))
	for i, v := range imgs {
		var buf bytes.Buffer
		if err := png.Encode(&buf, v); err != nil {
			return nil, fmt.Errorf("encode variant %d: %w", i, err)
		}
		scale := 1.0
		if sourceWidth > 0 {
			scale = float64(v.Bounds().Dx()) / float64(sourceWidth)
		}
		out = append(out, Encoded{Data: buf.Bytes(), Scale: scale})
	}
	return out, nil
}

func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	xdraw.Draw(gray, b, img, b.Min, xdraw.Src)
	return gray
}

// OtsuThreshold picks the threshold that maximises between-class variance.
func OtsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 128
	}
	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}
	var sumB, best float64
	var wB int
	threshold := uint8(0)
	for i, c := range hist {
		wB += c
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(i * c)
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(i)
		}
	}
	return threshold
}

// Binarize maps pixels above t to white and the rest to black.
func Binarize(gray *image.Gray, t uint8) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if gray.GrayAt(x, y).Y > t {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

func Scale(img image.Image, factor int) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
