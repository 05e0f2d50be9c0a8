// Package chrome implements driver.Driver on top of chromedp.
package chrome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Driver starts a local Chrome or Chromium per session.
type Driver struct{}

func New() *Driver { return &Driver{} }

func supported(browser string) bool {
	switch strings.ToLower(browser) {
	case "", "chrome", "chromium":
		return true
	}
	return false
}

func (d *Driver) Open(ctx context.Context, cfg driver.SessionConfig) (driver.Session, error) {
	if !supported(cfg.Browser) {
		return nil, &driver.DriverError{Browser: cfg.Browser, Op: "open", Err: fmt.Errorf("unsupported browser family %q", cfg.Browser)}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("lang", cfg.Language),
		chromedp.WindowSize(cfg.Width, cfg.Height),
	)
	if cfg.BinaryPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.BinaryPath))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	// The browser outlives the ctx of this call; Close tears it down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &session{
		ctx:     browserCtx,
		browser: cfg.Browser,
		timeout: cfg.QueryTimeout,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
	}

	// chromedp starts the browser on the first Run and ties the process to
	// that ctx, so it must be the session ctx and not a per-call one.
	stop := context.AfterFunc(ctx, s.cancel)
	err := chromedp.Run(s.ctx)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.cancel()
		return nil, &driver.DriverError{Browser: cfg.Browser, Op: "open", Err: err}
	}

	if cfg.Language != "" {
		if err := s.run(ctx, network.Enable(), network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": cfg.Language})); err != nil {
			s.cancel()
			return nil, &driver.DriverError{Browser: cfg.Browser, Op: "open", Err: err}
		}
	}
	return s, nil
}

type element struct {
	id cdp.NodeID
}

func (e element) ElementID() string { return fmt.Sprintf("node-%d", e.id) }

func nodeIDs(el driver.Element) ([]cdp.NodeID, error) {
	e, ok := el.(element)
	if !ok {
		return nil, fmt.Errorf("element %T does not belong to this driver", el)
	}
	return []cdp.NodeID{e.id}, nil
}

type session struct {
	ctx     context.Context
	cancel  func()
	browser string
	timeout time.Duration
	closed  bool
}

// run executes actions on the browser, bounded by both ctx and the query timeout.
func (s *session) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.closed {
		return driver.ErrSessionClosed
	}
	opCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if s.timeout > 0 {
		var cancelTimeout context.CancelFunc
		opCtx, cancelTimeout = context.WithTimeout(opCtx, s.timeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(opCtx, actions...)
}

func (s *session) onNode(ctx context.Context, el driver.Element, action func(ids []cdp.NodeID) chromedp.Action) error {
	ids, err := nodeIDs(el)
	if err != nil {
		return err
	}
	return s.run(ctx, action(ids))
}

func (s *session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *session) Back(ctx context.Context) error {
	return s.run(ctx, chromedp.NavigateBack())
}

func (s *session) Forward(ctx context.Context) error {
	return s.run(ctx, chromedp.NavigateForward())
}

func (s *session) query(ctx context.Context, by driver.Strategy, query string) ([]*cdp.Node, error) {
	sel, opt, err := selector(by, query)
	if err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(sel, &nodes, opt, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("querying %s %q: %w", by, query, err)
	}
	return nodes, nil
}

func (s *session) FindOne(ctx context.Context, by driver.Strategy, query string) (driver.Element, error) {
	nodes, err := s.query(ctx, by, query)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, driver.ErrNotFound
	}
	return element{id: nodes[0].NodeID}, nil
}

func (s *session) FindMany(ctx context.Context, by driver.Strategy, query string) (driver.Selection, error) {
	nodes, err := s.query(ctx, by, query)
	if err != nil {
		return nil, err
	}
	sel := make(driver.Selection, 0, len(nodes))
	for _, n := range nodes {
		sel = append(sel, element{id: n.NodeID})
	}
	return sel, nil
}

func (s *session) Click(ctx context.Context, el driver.Element) error {
	return s.onNode(ctx, el, func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.Click(ids, chromedp.ByNodeID)
	})
}

func (s *session) Submit(ctx context.Context, el driver.Element) error {
	return s.onNode(ctx, el, func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.Submit(ids, chromedp.ByNodeID)
	})
}

func (s *session) SendKeys(ctx context.Context, el driver.Element, text string) error {
	return s.onNode(ctx, el, func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.SendKeys(ids, text, chromedp.ByNodeID)
	})
}

func (s *session) Text(ctx context.Context, el driver.Element) (string, error) {
	var text string
	err := s.onNode(ctx, el, func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.JavascriptAttribute(ids, "innerText", &text, chromedp.ByNodeID)
	})
	return text, err
}

func (s *session) Attribute(ctx context.Context, el driver.Element, name string) (string, error) {
	var value string
	if name == "value" {
		err := s.onNode(ctx, el, func(ids []cdp.NodeID) chromedp.Action {
			return chromedp.JavascriptAttribute(ids, "value", &value, chromedp.ByNodeID)
		})
		return value, err
	}
	var ok bool
	err := s.onNode(ctx, el, func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.AttributeValue(ids, name, &value, &ok, chromedp.ByNodeID)
	})
	return value, err
}

func (s *session) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, chromedp.Title(&title))
	return title, err
}

const serializeDocument = `(function () {
	try {
		return new XMLSerializer().serializeToString(document);
	} catch (e) {
		return document.documentElement.outerHTML;
	}
})()`

func (s *session) HTMLSource(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.Evaluate(serializeDocument, &html))
	return html, err
}

// RunScript wraps the script so undefined and null come back as a JSON envelope.
func (s *session) RunScript(ctx context.Context, script string) (any, error) {
	wrapped := "(function () { const __r = (function () {\n" + script + "\n})(); return JSON.stringify({v: __r === undefined ? null : __r}); })()"
	var raw string
	if err := s.run(ctx, chromedp.Evaluate(wrapped, &raw)); err != nil {
		return nil, err
	}
	var envelope struct {
		V any `json:"v"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("decoding script result: %w", err)
	}
	return envelope.V, nil
}

func (s *session) Screenshot(ctx context.Context, el driver.Element) ([]byte, error) {
	var buf []byte
	if el == nil {
		err := s.run(ctx, chromedp.FullScreenshot(&buf, 100))
		return buf, err
	}
	err := s.onNode(ctx, el, func(ids []cdp.NodeID) chromedp.Action {
		return chromedp.Screenshot(ids, &buf, chromedp.ByNodeID)
	})
	return buf, err
}

func (s *session) Cookies(ctx context.Context) ([]types.Cookie, error) {
	var cookies []types.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		got, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range got {
			cookies = append(cookies, types.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
				SameSite: c.SameSite.String(),
			})
		}
		return nil
	}))
	return cookies, err
}

func (s *session) AddCookie(ctx context.Context, c types.Cookie) error {
	param := &network.CookieParam{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
	}
	if c.SameSite != "" {
		param.SameSite = network.CookieSameSite(c.SameSite)
	}
	if c.Expires > 0 {
		sec := int64(c.Expires)
		expires := cdp.TimeSinceEpoch(time.Unix(sec, 0))
		param.Expires = &expires
	}
	return s.run(ctx, network.SetCookies([]*network.CookieParam{param}))
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return &driver.DriverError{Browser: s.browser, Op: "close", Err: err}
	}
	return nil
}
