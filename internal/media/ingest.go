// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package media turns uploaded and generated images into references the
// certificate can embed: it validates and downsizes user photos, draws the
// placeholder portraits, and publishes image bytes as data URIs or object
// storage URLs.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxUploadSize is the largest photo accepted (10 MB).
	MaxUploadSize = 10 << 20

	// maxImagePixels guards against decompression bombs (40 megapixels).
	maxImagePixels = 40_000_000

	// maxPhotoWidth is the width photos are scaled down to.
	maxPhotoWidth = 800

	jpegQuality = 85
)

// allowedPhotoTypes are the sniffed content types accepted for upload.
var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var (
	// ErrUnsupportedImage is returned for files that are not a decodable
	// JPEG, PNG, GIF or WebP image.
	ErrUnsupportedImage = errors.New("media: unsupported image")
	// ErrTooLarge is returned for files above MaxUploadSize or images above
	// the pixel limit.
	ErrTooLarge = errors.New("media: image too large")
)

// Photo is an ingested image ready to be published.
type Photo struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Ingest reads an uploaded photo, checks that it really is an image of an
// accepted type, and scales it down to maxPhotoWidth when it is wider.
// Scaled photos are re-encoded as JPEG.
func Ingest(r io.Reader) (Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return Photo{}, fmt.Errorf("media: read: %w", err)
	}
	if len(data) > MaxUploadSize {
		return Photo{}, ErrTooLarge
	}
	if len(data) == 0 {
		return Photo{}, ErrUnsupportedImage
	}

	// Never trust the client's declared type.
	contentType := http.DetectContentType(data)
	if !allowedPhotoTypes[contentType] {
		return Photo{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}

	// Decode config first to check dimensions without full decode.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Photo{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return Photo{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxImagePixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Photo{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if cfg.Width <= maxPhotoWidth {
		return Photo{Data: data, ContentType: contentType, Width: cfg.Width, Height: cfg.Height}, nil
	}

	scaled, err := downscale(img, maxPhotoWidth)
	if err != nil {
		return Photo{}, err
	}
	b := scaled.Bounds()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Photo{}, fmt.Errorf("media: encode: %w", err)
	}
	return Photo{Data: buf.Bytes(), ContentType: "image/jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

// downscale resizes img to maxWidth preserving aspect ratio.
func downscale(img image.Image, maxWidth int) (image.Image, error) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 {
		return nil, ErrUnsupportedImage
	}
	ratio := float64(maxWidth) / float64(bounds.Dx())
	newHeight := max(1, int(float64(bounds.Dy())*ratio))

	// JPEG has no alpha; paint onto white so transparent areas stay light.
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst, nil
}

// UserMessage maps an ingestion error to the text shown next to the upload
// control.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrTooLarge):
		return "That photo is too large. Please choose an image under 10 MB."
	case errors.Is(err, ErrUnsupportedImage):
		return "Please upload a JPEG, PNG, GIF or WebP image."
	default:
		return "Failed to read the photo. Please try again."
	}
}
