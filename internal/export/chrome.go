// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	// pixelRatio renders the certificate at twice its CSS size for print.
	pixelRatio = 2

	viewportWidth  = 1200
	viewportHeight = 1600

	// certificateSelector is the element captured from the export view.
	certificateSelector = "#certificate"

	renderTimeout = 30 * time.Second
)

// Chrome rasterizes HTML with a headless Chromium driven over the DevTools
// protocol. The browser is launched on first use and shared by all exports.
type Chrome struct {
	bin string

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewChrome returns a rasterizer for the Chromium binary at bin. When bin is
// empty the system browser is looked up on PATH; if none is found NewChrome
// returns ErrNoRasterizer.
func NewChrome(bin string) (*Chrome, error) {
	if bin == "" {
		path, ok := launcher.LookPath()
		if !ok {
			return nil, ErrNoRasterizer
		}
		bin = path
	}
	return &Chrome{bin: bin}, nil
}

// start launches and connects to the browser if it is not running.
func (c *Chrome) start() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		return c.browser, nil
	}

	l := launcher.New().Bin(c.bin).Headless(true).Leakless(false)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	slog.Info("chrome started", "bin", c.bin)
	c.launcher = l
	c.browser = browser
	return browser, nil
}

// Rasterize loads html into a fresh page and screenshots the certificate
// element as PNG.
func (c *Chrome) Rasterize(ctx context.Context, html []byte) ([]byte, error) {
	browser, err := c.start()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()
	page = page.Context(ctx)

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: pixelRatio,
		Mobile:            false,
	}).Call(page); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	el, err := page.Element(certificateSelector)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", certificateSelector, err)
	}
	png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return png, nil
}

// Close shuts down the browser.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.browser != nil {
		err = c.browser.Close()
		c.browser = nil
	}
	if c.launcher != nil {
		c.launcher.Kill()
		c.launcher = nil
	}
	return err
}
