// Package driver defines the browser capabilities the step interpreter needs.
//
// Implementations live in sub packages: chrome drives a real browser over the
// DevTools protocol, drivertest is an in-memory fake for tests.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/types"
)

var (
	// ErrNotFound is returned by FindOne when nothing matches.
	ErrNotFound = errors.New("element not found")
	// ErrSessionClosed is returned by any call on a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// DriverError reports a session level failure such as a missing binary or a
// browser that could not be started.
type DriverError struct {
	Browser string
	Op      string
	Err     error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Browser, e.Op, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// Strategy selects how FindOne and FindMany interpret their query.
type Strategy int

const (
	ByID Strategy = iota + 1
	ByName
	ByClass
	ByTag
	ByLinkText
	ByPartialLinkText
	ByCSS
	ByXPath
)

func (s Strategy) String() string {
	switch s {
	case ByID:
		return "id"
	case ByName:
		return "name"
	case ByClass:
		return "class"
	case ByTag:
		return "tag"
	case ByLinkText:
		return "link text"
	case ByPartialLinkText:
		return "partial link text"
	case ByCSS:
		return "css"
	case ByXPath:
		return "xpath"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Element is an opaque handle to a node of the current document.
type Element interface {
	ElementID() string
}

// Selection is an ordered list of handles carried from one step to the next.
type Selection []Element

// First returns the first handle or nil.
func (s Selection) First() Element {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

// SessionConfig describes the browser a session is opened with.
type SessionConfig struct {
	Browser    string
	BinaryPath string
	Width      int
	Height     int
	UserAgent  string
	Language   string
	Headless   bool
	// SettleTimeout is the pause between two steps, jittered by the runner.
	SettleTimeout time.Duration
	// QueryTimeout bounds every single driver call.
	QueryTimeout time.Duration
}

// DefaultSessionConfig returns the configuration used when nothing is set.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Browser:      "chrome",
		Width:        1024,
		Height:       768,
		Language:     "en",
		Headless:     true,
		QueryTimeout: 30 * time.Second,
	}
}

// Driver opens browser sessions.
type Driver interface {
	Open(ctx context.Context, cfg SessionConfig) (Session, error)
}

// Session is one live browser.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error

	FindOne(ctx context.Context, by Strategy, query string) (Element, error)
	FindMany(ctx context.Context, by Strategy, query string) (Selection, error)

	Click(ctx context.Context, el Element) error
	Submit(ctx context.Context, el Element) error
	SendKeys(ctx context.Context, el Element, text string) error

	Text(ctx context.Context, el Element) (string, error)
	// Attribute returns the named attribute, or the live property for "value".
	Attribute(ctx context.Context, el Element, name string) (string, error)
	Title(ctx context.Context) (string, error)
	HTMLSource(ctx context.Context) (string, error)

	// RunScript evaluates script as a function body and returns its decoded
	// result, or nil when nothing was returned.
	RunScript(ctx context.Context, script string) (any, error)

	// Screenshot captures el, or the full page when el is nil, as PNG.
	Screenshot(ctx context.Context, el Element) ([]byte, error)

	Cookies(ctx context.Context) ([]types.Cookie, error)
	AddCookie(ctx context.Context, c types.Cookie) error

	Close() error
}
