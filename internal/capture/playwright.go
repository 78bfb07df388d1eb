package capture

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/xerrors"
)

type PlaywrightConfig struct {
	ViewportWidth  int
	ViewportHeight int

	FullPage bool

	Timeout time.Duration
	Delay   time.Duration

	Headless                  bool
	UserAgent                 string
	ChromeDevtoolsProtocolURL string
}

func DefaultPlaywrightConfig() PlaywrightConfig {
	return PlaywrightConfig{
		ViewportWidth:  1280,
		ViewportHeight: 720,
		FullPage:       true,
		Timeout:        30 * time.Second,
		Delay:          500 * time.Millisecond,
		Headless:       true,
	}
}

type playwrightCapturer struct {
	config PlaywrightConfig
}

func NewPlaywrightCapturer(config PlaywrightConfig) Capturer {
	return &playwrightCapturer{
		config: config,
	}
}

const maskStyle = `
.%[1]s {
  position: relative !important;
}
.%[1]s::after {
  content: "" !important;
  position: absolute !important;
  inset: 0 !important;
  background-color: #ff00ff !important;
  z-index: 2147483646 !important;
  pointer-events: none !important;
}
`

const maskScript = `(selectors) => {
	const style = document.createElement('style');
	style.textContent = %q;
	document.head.appendChild(style);
	selectors.forEach(selector => {
		document.querySelectorAll(selector).forEach(element => {
			element.classList.add(%q);
		});
	});
}`

func (c *playwrightCapturer) Capture(ctx context.Context, url string, options CaptureOptions) ([]byte, error) {
	p, err := playwright.Run()
	if err != nil {
		return nil, xerrors.Errorf("failed to start playwright: %w", err)
	}
	defer p.Stop()

	var browser playwright.Browser
	if c.config.ChromeDevtoolsProtocolURL == "" {
		browser, err = p.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(c.config.Headless),
		})
		if err != nil {
			return nil, xerrors.Errorf("failed to launch browser: %w", err)
		}
		defer browser.Close()
	} else {
		browser, err = p.Chromium.ConnectOverCDP(c.config.ChromeDevtoolsProtocolURL)
		if err != nil {
			return nil, xerrors.Errorf("failed to connect to browser via CDP at %s: %w", c.config.ChromeDevtoolsProtocolURL, err)
		}
	}

	pageOptions := playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{
			Width:  c.config.ViewportWidth,
			Height: c.config.ViewportHeight,
		},
	}
	if c.config.UserAgent != "" {
		pageOptions.UserAgent = playwright.String(c.config.UserAgent)
	}
	page, err := browser.NewPage(pageOptions)
	if err != nil {
		return nil, xerrors.Errorf("failed to create new page: %w", err)
	}
	defer page.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			page.Close()
		case <-done:
		}
	}()
	defer close(done)

	if len(options.Headers) > 0 {
		if err := page.SetExtraHTTPHeaders(options.Headers); err != nil {
			return nil, xerrors.Errorf("failed to set HTTP headers: %w", err)
		}
	}

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(c.config.Timeout.Milliseconds())),
	}); err != nil {
		return nil, xerrors.Errorf("failed to navigate to %s: %w", url, err)
	}

	if c.config.Delay > 0 {
		select {
		case <-time.After(c.config.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if len(options.MaskSelectors) > 0 {
		unique := make([]byte, 8)
		if _, err := rand.Read(unique); err != nil {
			return nil, xerrors.Errorf("failed to generate unique identifier: %w", err)
		}
		className := "mask-" + hex.EncodeToString(unique)
		script := fmt.Sprintf(maskScript, fmt.Sprintf(maskStyle, className), className)
		if _, err := page.Evaluate(script, options.MaskSelectors); err != nil {
			return nil, xerrors.Errorf("failed to mask selectors: %w", err)
		}
	}

	screenshot, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage:   playwright.Bool(c.config.FullPage),
		Type:       playwright.ScreenshotTypePng,
		Animations: playwright.ScreenshotAnimationsDisabled,
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to take screenshot: %w", err)
	}

	return screenshot, nil
}
