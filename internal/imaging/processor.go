// Package imaging post-processes captured images: crop with padding,
// downscale and JPEG re-encode. Every operation is best-effort; on any
// failure the original payload is returned unchanged.
package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

const (
	// Maximum dimensions of a processed image.
	maxWidth  = 640
	maxHeight = 480

	// Bounding box padding, fraction of box width/height added per side.
	padFraction = 0.1

	jpegQuality = 80
)

// Crop crops a base64 image to bbox [x, y, w, h] with 10% padding, clamped
// to the image bounds, downscales the result so neither dimension exceeds
// 640x480, and re-encodes it as a base64 JPEG data URI.
//
// If bbox is missing or short, the payload is empty, or anything fails to
// decode, the input is returned unchanged. Cropping is never a hard
// requirement.
func Crop(imageB64 string, bbox []float64) string {
	if imageB64 == "" || len(bbox) < 4 {
		return imageB64
	}

	img, err := decodeBase64Image(imageB64)
	if err != nil {
		return imageB64
	}

	bounds := img.Bounds()
	x, y, w, h := bbox[0], bbox[1], bbox[2], bbox[3]

	x1 := clamp(int(x-w*padFraction), 0, bounds.Dx())
	y1 := clamp(int(y-h*padFraction), 0, bounds.Dy())
	x2 := clamp(int(x+w+w*padFraction), 0, bounds.Dx())
	y2 := clamp(int(y+h+h*padFraction), 0, bounds.Dy())

	if x2 <= x1 || y2 <= y1 {
		return imageB64
	}

	rect := image.Rect(x1, y1, x2, y2).Add(bounds.Min)
	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.Draw(cropped, cropped.Bounds(), img, rect.Min, xdraw.Src)

	final := shrinkToFit(cropped, maxWidth, maxHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, final, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return imageB64
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// StripDataURI removes a leading data-URI prefix from a base64 payload.
func StripDataURI(s string) string {
	if idx := strings.Index(s, ","); idx >= 0 && strings.HasPrefix(s, "data:") {
		return s[idx+1:]
	}
	return s
}

func decodeBase64Image(imageB64 string) (image.Image, error) {
	raw, err := base64.StdEncoding.DecodeString(StripDataURI(imageB64))
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// shrinkToFit downscales img so both dimensions fit within maxW x maxH,
// preserving aspect ratio. Images already within bounds pass through.
func shrinkToFit(img image.Image, maxW, maxH int) image.Image {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}

	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
