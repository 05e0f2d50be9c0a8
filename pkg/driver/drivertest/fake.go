// Package drivertest provides an in-memory driver for tests.
package drivertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/arnavsurve/scrapebot/pkg/types"
)

// Element is a fake node.
type Element struct {
	ID    string
	Text  string
	Attrs map[string]string
}

func (e *Element) ElementID() string { return e.ID }

// Query is the key under which a page exposes elements.
type Query struct {
	By    driver.Strategy
	Value string
}

// Page is what the fake shows for one URL.
type Page struct {
	Title    string
	HTML     string
	Elements map[Query][]*Element
}

// Call records one session method invocation.
type Call struct {
	Op  string
	Arg string
}

// Driver hands out fake sessions over a fixed set of pages.
type Driver struct {
	mu sync.Mutex

	Pages map[string]*Page
	// OpenErr makes Open fail.
	OpenErr error
	// Errors makes the named session operation fail.
	Errors map[string]error
	// ScriptResults maps a script to the value RunScript returns.
	ScriptResults map[string]any
	// Jar seeds the cookies of every new session.
	Jar []types.Cookie
	// Image is returned by Screenshot.
	Image []byte

	Sessions []*Session
}

// New returns an empty fake driver.
func New() *Driver {
	return &Driver{
		Pages:         map[string]*Page{},
		Errors:        map[string]error{},
		ScriptResults: map[string]any{},
		Image:         []byte("\x89PNG fake"),
	}
}

// AddPage registers p under url and returns it.
func (d *Driver) AddPage(url string, p *Page) *Page {
	if p.Elements == nil {
		p.Elements = map[Query][]*Element{}
	}
	d.Pages[url] = p
	return p
}

func (d *Driver) Open(_ context.Context, cfg driver.SessionConfig) (driver.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.OpenErr != nil {
		return nil, &driver.DriverError{Browser: cfg.Browser, Op: "open", Err: d.OpenErr}
	}
	s := &Session{driver: d, Config: cfg, pos: -1}
	s.jar = append(s.jar, d.Jar...)
	d.Sessions = append(d.Sessions, s)
	return s, nil
}

// Last returns the most recently opened session.
func (d *Driver) Last() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Sessions) == 0 {
		return nil
	}
	return d.Sessions[len(d.Sessions)-1]
}

// Session is a fake browser.
type Session struct {
	driver *Driver
	Config driver.SessionConfig

	Calls      []Call
	CloseCount int

	history []string
	pos     int
	jar     []types.Cookie
}

// Ops lists the operation names in call order.
func (s *Session) Ops() []string {
	ops := make([]string, len(s.Calls))
	for i, c := range s.Calls {
		ops[i] = c.Op
	}
	return ops
}

// CallsOf returns the calls of one operation.
func (s *Session) CallsOf(op string) []Call {
	var out []Call
	for _, c := range s.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// URL returns the current location.
func (s *Session) URL() string {
	if s.pos < 0 {
		return ""
	}
	return s.history[s.pos]
}

func (s *Session) record(op, arg string) error {
	s.Calls = append(s.Calls, Call{Op: op, Arg: arg})
	if s.CloseCount > 0 && op != "close" {
		return driver.ErrSessionClosed
	}
	return s.driver.Errors[op]
}

func (s *Session) page() *Page {
	if p, ok := s.driver.Pages[s.URL()]; ok {
		return p
	}
	return &Page{Elements: map[Query][]*Element{}}
}

func element(el driver.Element) (*Element, error) {
	e, ok := el.(*Element)
	if !ok || e == nil {
		return nil, fmt.Errorf("foreign element %T", el)
	}
	return e, nil
}

func (s *Session) Navigate(_ context.Context, url string) error {
	if err := s.record("navigate", url); err != nil {
		return err
	}
	s.history = append(s.history[:s.pos+1], url)
	s.pos++
	return nil
}

func (s *Session) Back(context.Context) error {
	if err := s.record("back", ""); err != nil {
		return err
	}
	if s.pos > 0 {
		s.pos--
	}
	return nil
}

func (s *Session) Forward(context.Context) error {
	if err := s.record("forward", ""); err != nil {
		return err
	}
	if s.pos < len(s.history)-1 {
		s.pos++
	}
	return nil
}

func (s *Session) FindOne(ctx context.Context, by driver.Strategy, query string) (driver.Element, error) {
	if err := s.record("find_one", by.String()+"="+query); err != nil {
		return nil, err
	}
	els := s.page().Elements[Query{By: by, Value: query}]
	if len(els) == 0 {
		return nil, driver.ErrNotFound
	}
	return els[0], nil
}

func (s *Session) FindMany(ctx context.Context, by driver.Strategy, query string) (driver.Selection, error) {
	if err := s.record("find_many", by.String()+"="+query); err != nil {
		return nil, err
	}
	els := s.page().Elements[Query{By: by, Value: query}]
	sel := make(driver.Selection, 0, len(els))
	for _, e := range els {
		sel = append(sel, e)
	}
	return sel, nil
}

func (s *Session) Click(_ context.Context, el driver.Element) error {
	if err := s.record("click", el.ElementID()); err != nil {
		return err
	}
	_, err := element(el)
	return err
}

func (s *Session) Submit(_ context.Context, el driver.Element) error {
	if err := s.record("submit", el.ElementID()); err != nil {
		return err
	}
	_, err := element(el)
	return err
}

func (s *Session) SendKeys(_ context.Context, el driver.Element, text string) error {
	return s.record("send_keys", text)
}

func (s *Session) Text(_ context.Context, el driver.Element) (string, error) {
	if err := s.record("text", el.ElementID()); err != nil {
		return "", err
	}
	e, err := element(el)
	if err != nil {
		return "", err
	}
	return e.Text, nil
}

func (s *Session) Attribute(_ context.Context, el driver.Element, name string) (string, error) {
	if err := s.record("attribute", name); err != nil {
		return "", err
	}
	e, err := element(el)
	if err != nil {
		return "", err
	}
	return e.Attrs[name], nil
}

func (s *Session) Title(context.Context) (string, error) {
	if err := s.record("title", ""); err != nil {
		return "", err
	}
	return s.page().Title, nil
}

func (s *Session) HTMLSource(context.Context) (string, error) {
	if err := s.record("html_source", ""); err != nil {
		return "", err
	}
	return s.page().HTML, nil
}

func (s *Session) RunScript(_ context.Context, script string) (any, error) {
	if err := s.record("run_script", script); err != nil {
		return nil, err
	}
	return s.driver.ScriptResults[script], nil
}

func (s *Session) Screenshot(_ context.Context, el driver.Element) ([]byte, error) {
	arg := ""
	if el != nil {
		arg = el.ElementID()
	}
	if err := s.record("screenshot", arg); err != nil {
		return nil, err
	}
	return s.driver.Image, nil
}

func (s *Session) Cookies(context.Context) ([]types.Cookie, error) {
	if err := s.record("cookies", ""); err != nil {
		return nil, err
	}
	out := make([]types.Cookie, len(s.jar))
	copy(out, s.jar)
	return out, nil
}

func (s *Session) AddCookie(_ context.Context, c types.Cookie) error {
	if err := s.record("add_cookie", c.Name); err != nil {
		return err
	}
	s.jar = append(s.jar, c)
	return nil
}

func (s *Session) Close() error {
	err := s.record("close", "")
	s.CloseCount++
	return err
}

var _ driver.Session = (*Session)(nil)
