package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// --------------------------------------------------------------------------
// Ingest
// --------------------------------------------------------------------------

func TestIngestKeepsSmallImages(t *testing.T) {
	data := encodePNG(t, 120, 80)

	photo, err := Ingest(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "image/png", photo.ContentType)
	assert.Equal(t, data, photo.Data, "small images are stored untouched")
	assert.Equal(t, 120, photo.Width)
	assert.Equal(t, 80, photo.Height)
}

func TestIngestDownscalesWideImages(t *testing.T) {
	photo, err := Ingest(bytes.NewReader(encodePNG(t, 1600, 800)))
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", photo.ContentType)
	assert.Equal(t, maxPhotoWidth, photo.Width)
	assert.Equal(t, 400, photo.Height)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(photo.Data))
	require.NoError(t, err)
	assert.Equal(t, maxPhotoWidth, cfg.Width)
}

func TestIngestAcceptsGIFAndJPEG(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 10, 10), []color.Color{color.White, color.Black})

	var g bytes.Buffer
	require.NoError(t, gif.Encode(&g, img, nil))
	photo, err := Ingest(&g)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", photo.ContentType)

	var j bytes.Buffer
	require.NoError(t, jpeg.Encode(&j, img, nil))
	photo, err = Ingest(&j)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", photo.ContentType)
}

func TestIngestRejects(t *testing.T) {
	// A GIF header announcing a 65535x65535 canvas and nothing else.
	bomb := []byte("GIF89a\xff\xff\xff\xff\x00\x00\x00")

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrUnsupportedImage},
		{"text", []byte("definitely not a photo"), ErrUnsupportedImage},
		{"html", []byte("<html><body>hi</body></html>"), ErrUnsupportedImage},
		{"truncated png", encodePNG(t, 50, 50)[:40], ErrUnsupportedImage},
		{"too many pixels", bomb, ErrTooLarge},
		{"too many bytes", bytes.Repeat([]byte{0}, MaxUploadSize+1), ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Ingest(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestIngestReadError(t *testing.T) {
	_, err := Ingest(failingReader{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupportedImage)
	assert.Equal(t, "Failed to read the photo. Please try again.", UserMessage(err))
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, UserMessage(ErrTooLarge), "under 10 MB")
	assert.Contains(t, UserMessage(fmt.Errorf("%w: image/bmp", ErrUnsupportedImage)), "JPEG, PNG, GIF or WebP")
}

// --------------------------------------------------------------------------
// Placeholder
// --------------------------------------------------------------------------

func TestPlaceholderDeterministic(t *testing.T) {
	a, err := Placeholder("Selina Kyle", 200)
	require.NoError(t, err)
	b, err := Placeholder("Selina Kyle", 200)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Placeholder("Harleen Quinzel", 200)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestPlaceholderSize(t *testing.T) {
	tests := []struct {
		size, want int
	}{
		{400, 400},
		{64, 64},
		{1, placeholderTile},
	}
	for _, tt := range tests {
		data, err := Placeholder("Bruce", tt.size)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, tt.want, img.Bounds().Dx())
		assert.Equal(t, tt.want, img.Bounds().Dy())
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Selina Kyle", "SK"},
		{"bruce", "B"},
		{"  Alfred   J  Pennyworth ", "AJ"},
		{"Éowyn Rider", "ER"},
		{"Øystein Ødegaard", "YD"},
		{"", "?"},
		{"!!! ???", "?"},
		{"2 Face", "2F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, initials(tt.name), tt.name)
	}
}

func TestColorForIgnoresCaseAndSpace(t *testing.T) {
	assert.Equal(t, colorFor("Selina"), colorFor("  selina "))
	c := colorFor("Selina")
	assert.GreaterOrEqual(t, c.R, uint8(64))
	assert.Equal(t, uint8(0xff), c.A)
}

func TestContrast(t *testing.T) {
	assert.Equal(t, color.Black, contrast(color.RGBA{R: 190, G: 190, B: 190, A: 255}))
	assert.Equal(t, color.White, contrast(color.RGBA{R: 64, G: 64, B: 64, A: 255}))
}

// --------------------------------------------------------------------------
// Publish
// --------------------------------------------------------------------------

func TestDataURI(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("abc")), DataURI([]byte("abc"), "image/png"))
	assert.True(t, strings.HasPrefix(DataURI([]byte("x"), ""), "data:application/octet-stream;base64,"))
}

func TestDataURIPublisher(t *testing.T) {
	var pub Publisher = DataURIPublisher{}

	ref, err := pub.Publish(context.Background(), []byte{1, 2, 3}, "image/jpeg", "photos", "Bruce")
	require.NoError(t, err)
	assert.Equal(t, DataURI([]byte{1, 2, 3}, "image/jpeg"), ref)
}
