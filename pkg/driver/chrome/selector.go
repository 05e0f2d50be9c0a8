package chrome

import (
	"fmt"
	"strings"

	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/chromedp/chromedp"
)

// selector translates a lookup into a chromedp selector and query option.
func selector(by driver.Strategy, value string) (string, chromedp.QueryOption, error) {
	switch by {
	case driver.ByID:
		return "[id=" + cssString(value) + "]", chromedp.ByQueryAll, nil
	case driver.ByName:
		return "[name=" + cssString(value) + "]", chromedp.ByQueryAll, nil
	case driver.ByClass:
		return "[class~=" + cssString(value) + "]", chromedp.ByQueryAll, nil
	case driver.ByTag, driver.ByCSS:
		return value, chromedp.ByQueryAll, nil
	case driver.ByLinkText:
		return "//a[normalize-space(string(.))=" + xpathString(strings.TrimSpace(value)) + "]", chromedp.BySearch, nil
	case driver.ByPartialLinkText:
		return "//a[contains(string(.), " + xpathString(value) + ")]", chromedp.BySearch, nil
	case driver.ByXPath:
		return value, chromedp.BySearch, nil
	}
	return "", nil, fmt.Errorf("unsupported lookup strategy %s", by)
}

func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}

// xpathString quotes s as an XPath 1.0 literal, which has no escape syntax.
func xpathString(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = `"` + p + `"`
	}
	return "concat(" + strings.Join(quoted, `, '"', `) + ")"
}
