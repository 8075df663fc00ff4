// Package main - browser.go
//
// This file implements the browser-backed Actuator that manages chromedp
// for game interaction: navigation, screen capture, mouse/keyboard input,
// cookie persistence, and reconnection.
//
// Browser Architecture:
// The Browser uses nested contexts for proper resource management:
//   - allocCtx: Allocator context for browser process management
//   - ctx: Browser context for page operations
// Both contexts have cancel functions for graceful cleanup.
//
// Timeout Strategy:
//   - Navigation: 60 seconds (slow network tolerance)
//   - Screenshot: 5 seconds (prevent hanging)
//   - Input and page queries: 2 seconds (quick operations)
//
// Input model: mouse clicks go through CDP input events; key presses are
// dispatched as KeyboardEvents to the game canvas via JavaScript
// injection, which keeps working when the window is unfocused.
package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png" // screenshot decoding
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Browser manages the chromedp browser instance for game interaction.
// Implements Actuator.
//
// Lifecycle:
//   1. NewBrowser(): Create instance
//   2. Start(): Initialize chromedp contexts, restore cookies, navigate
//   3. Screenshot()/Click()/PressKey(): drive the game
//   4. Reconnect(): tear down and rebuild the session on failure
//   5. Close(): Clean up contexts and browser process
//
// Error Handling:
// All chromedp operations use context timeouts to prevent indefinite
// blocking. An invalid context surfaces as an error so the policy
// engine can escalate to reconnection.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCtx    context.Context
	allocCancel context.CancelFunc

	gameURL string
	cookies []CookieData
	mu      sync.Mutex
}

// NewBrowser creates a new browser actuator for the given game URL
func NewBrowser(gameURL string) *Browser {
	return &Browser{
		gameURL: gameURL,
	}
}

// Start initializes chromedp and navigates to the game URL. Previously
// saved cookies are restored before navigation so the session survives
// restarts.
func (b *Browser) Start(cookies []CookieData) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false), // Show browser window
		chromedp.Flag("disable-gpu", false),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(defaultScreenW, defaultScreenH),
	)

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	LogInfo("Browser allocator context created")

	b.ctx, b.cancel = chromedp.NewContext(b.allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		LogDebug(format, args...)
	}))
	LogInfo("Browser context created")

	b.mu.Lock()
	b.cookies = cookies
	b.mu.Unlock()

	if len(cookies) > 0 {
		LogInfo("Setting %d cookies before navigation", len(cookies))
		if err := b.SetCookies(cookies); err != nil {
			LogWarn("Failed to set cookies before navigation: %v", err)
		}
	}

	LogInfo("Navigating to %s", b.gameURL)

	navCtx, navCancel := context.WithTimeout(b.ctx, 60*time.Second)
	defer navCancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(b.gameURL)); err != nil {
		LogError("Navigation error: %v", err)
		return err
	}

	LogInfo("Navigation completed successfully")
	return nil
}

// Screenshot captures the current browser viewport as RGBA.
// Returns an error when the context is gone or the capture times out,
// so callers can treat it as a transient failure.
func (b *Browser) Screenshot() (*image.RGBA, error) {
	if b.ctx == nil || b.ctx.Err() != nil {
		return nil, fmt.Errorf("browser context is invalid")
	}

	var buf []byte
	captureCtx, cancel := context.WithTimeout(b.ctx, 5*time.Second)
	defer cancel()

	err := chromedp.Run(captureCtx,
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		LogDebug("Screenshot failed: %v", err)
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}

	return rgba, nil
}

// Click dispatches a left click at viewport coordinates
func (b *Browser) Click(x, y int) error {
	if b.ctx == nil || b.ctx.Err() != nil {
		return fmt.Errorf("browser context is invalid")
	}

	clickCtx, cancel := context.WithTimeout(b.ctx, 2*time.Second)
	defer cancel()

	err := chromedp.Run(clickCtx,
		chromedp.MouseClickXY(float64(x), float64(y)),
	)
	if err != nil {
		LogDebug("Click at (%d,%d) failed: %v", x, y, err)
		return err
	}

	LogDebug("Clicked (%d,%d)", x, y)
	return nil
}

// PressKey dispatches a key press to the game canvas (or document body
// when no canvas exists) via KeyboardEvent injection
func (b *Browser) PressKey(key string) error {
	if b.ctx == nil || b.ctx.Err() != nil {
		return fmt.Errorf("browser context is invalid")
	}

	js := fmt.Sprintf(`
		(function() {
			const target = document.getElementById('canvas') || document.body;
			if (!target) { return false; }
			const opts = { key: %q, bubbles: true, cancelable: true };
			target.dispatchEvent(new KeyboardEvent('keydown', opts));
			target.dispatchEvent(new KeyboardEvent('keyup', opts));
			return true;
		})()`, key)

	keyCtx, cancel := context.WithTimeout(b.ctx, 2*time.Second)
	defer cancel()

	var dispatched bool
	err := chromedp.Run(keyCtx,
		chromedp.Evaluate(js, &dispatched),
	)
	if err != nil {
		LogDebug("Key %q failed: %v", key, err)
		return err
	}
	if !dispatched {
		return fmt.Errorf("no event target for key %q", key)
	}

	LogDebug("Key sent: %s", key)
	return nil
}

// VisibleText returns the page's visible text, used for death banner
// detection
func (b *Browser) VisibleText() (string, error) {
	if b.ctx == nil || b.ctx.Err() != nil {
		return "", fmt.Errorf("browser context is invalid")
	}

	textCtx, cancel := context.WithTimeout(b.ctx, 2*time.Second)
	defer cancel()

	var text string
	err := chromedp.Run(textCtx,
		chromedp.Evaluate(`document.body ? document.body.innerText : ''`, &text),
	)
	if err != nil {
		return "", err
	}
	return text, nil
}

// IsAlive reports whether the browser session still answers queries
func (b *Browser) IsAlive() bool {
	if b.ctx == nil || b.ctx.Err() != nil {
		return false
	}

	checkCtx, cancel := context.WithTimeout(b.ctx, 2*time.Second)
	defer cancel()

	var state string
	err := chromedp.Run(checkCtx,
		chromedp.Evaluate(`document.readyState`, &state),
	)
	return err == nil
}

// InGame reports whether the page looks like an active game session:
// either the URL points at a map or the HUD text is present
func (b *Browser) InGame() bool {
	if b.ctx == nil || b.ctx.Err() != nil {
		return false
	}

	checkCtx, cancel := context.WithTimeout(b.ctx, 2*time.Second)
	defer cancel()

	var inGame bool
	err := chromedp.Run(checkCtx,
		chromedp.Evaluate(`
			(function() {
				const url = location.href.toLowerCase();
				const text = document.body ? document.body.innerText.toLowerCase() : '';
				return url.includes('play') || url.includes('game') || text.includes('fuel');
			})()`, &inGame),
	)
	if err != nil {
		LogDebug("InGame check failed: %v", err)
		return false
	}
	return inGame
}

// Reconnect tears the session down and rebuilds it with the saved
// cookies
func (b *Browser) Reconnect() error {
	LogInfo("Reconnecting browser session")
	b.Close()

	b.mu.Lock()
	cookies := b.cookies
	b.mu.Unlock()

	return b.Start(cookies)
}

// GetCookies retrieves all cookies from the browser
func (b *Browser) GetCookies() ([]CookieData, error) {
	if b.ctx == nil || b.ctx.Err() != nil {
		return nil, fmt.Errorf("browser context is invalid")
	}

	var cookies []*network.Cookie
	err := chromedp.Run(b.ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		LogError("Failed to get cookies: %v", err)
		return nil, err
	}

	cookieData := make([]CookieData, len(cookies))
	for i, c := range cookies {
		cookieData[i] = CookieData{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		}
	}

	LogInfo("Retrieved %d cookies from browser", len(cookieData))
	return cookieData, nil
}

// SetCookies sets cookies in the browser
func (b *Browser) SetCookies(cookies []CookieData) error {
	if len(cookies) == 0 {
		return nil
	}

	err := chromedp.Run(b.ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				params := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithHTTPOnly(c.HTTPOnly).
					WithSecure(c.Secure)

				if c.Expires > 0 {
					expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
					params = params.WithExpires(&expires)
				}
				if c.SameSite != "" {
					params = params.WithSameSite(network.CookieSameSite(strings.ToLower(c.SameSite)))
				}

				if err := params.Do(ctx); err != nil {
					LogWarn("Failed to set cookie %s: %v", c.Name, err)
				}
			}
			return nil
		}),
	)
	if err != nil {
		LogError("Failed to set cookies: %v", err)
		return err
	}

	LogInfo("Set %d cookies in browser", len(cookies))
	return nil
}

// Close closes the browser
func (b *Browser) Close() {
	LogInfo("Closing browser...")
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	if b.allocCancel != nil {
		b.allocCancel()
		b.allocCancel = nil
	}
	LogInfo("Browser closed")
}
