package chrome

import (
	"testing"

	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector(t *testing.T) {
	tests := []struct {
		by    driver.Strategy
		value string
		want  string
	}{
		{driver.ByID, "main", `[id="main"]`},
		{driver.ByName, `q"x`, `[name="q\"x"]`},
		{driver.ByClass, "btn", `[class~="btn"]`},
		{driver.ByTag, "a", "a"},
		{driver.ByCSS, "div > p", "div > p"},
		{driver.ByLinkText, " Next ", `//a[normalize-space(string(.))="Next"]`},
		{driver.ByPartialLinkText, "Ne", `//a[contains(string(.), "Ne")]`},
		{driver.ByXPath, "//p", "//p"},
	}
	for _, tt := range tests {
		t.Run(tt.by.String(), func(t *testing.T) {
			got, opt, err := selector(tt.by, tt.value)
			require.NoError(t, err)
			assert.NotNil(t, opt)
			assert.Equal(t, tt.want, got)
		})
	}

	_, _, err := selector(driver.Strategy(99), "x")
	assert.Error(t, err)
}

func TestXPathString(t *testing.T) {
	assert.Equal(t, `"plain"`, xpathString("plain"))
	assert.Equal(t, `'say "hi"'`, xpathString(`say "hi"`))
	assert.Equal(t, `concat("it's ", '"', "x", '"', "")`, xpathString(`it's "x"`))
}

func TestOpenRejectsUnsupportedBrowser(t *testing.T) {
	_, err := New().Open(t.Context(), driver.SessionConfig{Browser: "firefox"})
	var derr *driver.DriverError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "open", derr.Op)
}
