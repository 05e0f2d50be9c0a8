package chrome

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findChrome(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no chrome or chromium binary on PATH")
	return ""
}

func TestSessionLifecycle(t *testing.T) {
	bin := findChrome(t)

	cfg := driver.DefaultSessionConfig()
	cfg.BinaryPath = bin
	cfg.Headless = true
	cfg.QueryTimeout = 20 * time.Second

	openCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	sess, err := New().Open(openCtx, cfg)
	cancel()
	require.NoError(t, err)

	// The browser must survive the ctx used to open it.
	ctx := context.Background()
	require.NoError(t, sess.Navigate(ctx, "about:blank"))
	_, err = sess.Title(ctx)
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())

	_, err = sess.Title(ctx)
	assert.ErrorIs(t, err, driver.ErrSessionClosed)
}
