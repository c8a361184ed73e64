package export

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ewed/internal/cache"
	"ewed/internal/certificate"
	"ewed/internal/persona"
	"ewed/internal/render"
)

// viewFunc renders the record's names into a tiny document.
type viewFunc func(rec certificate.Record) ([]byte, error)

func (f viewFunc) ExportView(rec certificate.Record) ([]byte, error) { return f(rec) }

func namesView(rec certificate.Record) ([]byte, error) {
	return []byte(`<div id="certificate">` + rec.UserName + " & " + rec.CelebrityName + `</div>`), nil
}

type countingRaster struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *countingRaster) Rasterize(_ context.Context, html []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return append([]byte("PNG:"), html...), nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{entries: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, png []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = png
}

func bruceAndSelina() certificate.Record {
	rec := certificate.Default("statement")
	rec.UserName = "Bruce"
	rec.CelebrityName = "Selina"
	return rec
}

func TestExportWithoutRasterizer(t *testing.T) {
	e := New(viewFunc(namesView), nil, nil)

	assert.False(t, e.Available())
	_, err := e.Export(context.Background(), bruceAndSelina())
	assert.ErrorIs(t, err, ErrNoRasterizer)

	var nilExporter *Exporter
	assert.False(t, nilExporter.Available())
}

func TestExportIsIdempotent(t *testing.T) {
	raster := &countingRaster{}
	c := newMapCache()
	e := New(viewFunc(namesView), raster, c)
	rec := bruceAndSelina()

	first, err := e.Export(context.Background(), rec)
	require.NoError(t, err)
	second, err := e.Export(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, raster.calls, "an unchanged certificate is rasterized once")

	html, _ := namesView(rec)
	cached, ok := c.Get(context.Background(), cache.ExportKey(html))
	require.True(t, ok)
	assert.Equal(t, first, cached)
}

func TestExportChangedRecordRasterizesAgain(t *testing.T) {
	raster := &countingRaster{}
	e := New(viewFunc(namesView), raster, newMapCache())
	rec := bruceAndSelina()

	a, err := e.Export(context.Background(), rec)
	require.NoError(t, err)
	rec.CelebrityName = "Harleen"
	b, err := e.Export(context.Background(), rec)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, raster.calls)
}

func TestExportWithoutCache(t *testing.T) {
	raster := &countingRaster{}
	e := New(viewFunc(namesView), raster, nil)

	for range 2 {
		_, err := e.Export(context.Background(), bruceAndSelina())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, raster.calls)
}

func TestExportErrors(t *testing.T) {
	t.Run("view fails", func(t *testing.T) {
		viewErr := errors.New("template broke")
		raster := &countingRaster{}
		e := New(viewFunc(func(certificate.Record) ([]byte, error) { return nil, viewErr }), raster, nil)

		_, err := e.Export(context.Background(), bruceAndSelina())
		assert.ErrorIs(t, err, viewErr)
		assert.Zero(t, raster.calls)
	})

	t.Run("rasterizer fails", func(t *testing.T) {
		rasterErr := errors.New("browser crashed")
		c := newMapCache()
		e := New(viewFunc(namesView), &countingRaster{err: rasterErr}, c)

		_, err := e.Export(context.Background(), bruceAndSelina())
		assert.ErrorIs(t, err, rasterErr)
		assert.Empty(t, c.entries, "failures are not cached")
	})
}

// TestChromeRasterize drives a real headless browser over the export view.
// Skips when no Chromium is installed.
func TestChromeRasterize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	chrome, err := NewChrome("")
	if errors.Is(err, ErrNoRasterizer) {
		t.Skip("skipping: no chromium found on PATH")
	}
	require.NoError(t, err)
	t.Cleanup(func() { chrome.Close() })

	renderer, err := render.New(persona.Default())
	require.NoError(t, err)

	rec := bruceAndSelina()
	rec.Number = "EW-0123456789"
	rec.IssuedAt = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	portrait, err := certificate.MockPortraitRef(rec.CelebrityName)
	require.NoError(t, err)
	rec.UserPhoto, rec.CelebrityPhoto = portrait, portrait

	e := New(renderer, chrome, nil)
	out, err := e.Export(context.Background(), rec)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}
