package objmodel

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxTextureSize bounds the longer side of a decoded texture.
const MaxTextureSize = 2048

// DecodeTexture decodes a JPEG, PNG, WebP or BMP image and resamples it to
// power-of-two dimensions so mipmaps can be generated for it.
func DecodeTexture(data []byte) (*image.RGBA, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("objmodel: decode texture: %w", err)
	}
	b := img.Bounds()
	w, h := ceilPow2(b.Dx()), ceilPow2(b.Dy())
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("objmodel: empty %s texture", format)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst, nil
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}

func ceilPow2(n int) int {
	if n <= 0 {
		return 0
	}
	p := 1
	for p < n && p < MaxTextureSize {
		p <<= 1
	}
	return p
}
