package checker

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CSRFField is the form field Django expects the anti-forgery token in.
const CSRFField = "csrfmiddlewaretoken"

var csrfPatterns = []*regexp.Regexp{
	regexp.MustCompile(`name=["']csrfmiddlewaretoken["']\s+value=["']([^"']+)["']`),
	regexp.MustCompile(`value=["']([^"']+)["']\s+name=["']csrfmiddlewaretoken["']`),
	regexp.MustCompile(`["']?csrfToken["']?\s*[:=]\s*["']([^"']+)["']`),
}

// ExtractCSRFToken finds the anti-forgery token in a login page. The hidden
// form input is tried first; a pattern match over the raw body covers pages
// that do not parse or render the token elsewhere. Returns "" when absent.
func ExtractCSRFToken(body []byte) string {
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		if v, ok := doc.Find("input[name=" + CSRFField + "]").First().Attr("value"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	for _, re := range csrfPatterns {
		if m := re.FindSubmatch(body); m != nil {
			return string(m[1])
		}
	}
	return ""
}
