package auto

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMinTextLength is the visible text below which a page counts as an
// unrendered shell.
const DefaultMinTextLength = 200

var spaMarkers = [][]byte{
	[]byte(`id="__next"`),
	[]byte(`id="__nuxt"`),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
	[]byte("ng-version"),
}

// Detector decides whether statically fetched HTML needs a browser render.
type Detector struct {
	MinTextLength int
}

// NewDetector creates a Detector. A non-positive threshold uses the default.
func NewDetector(minTextLength int) *Detector {
	if minTextLength <= 0 {
		minTextLength = DefaultMinTextLength
	}
	return &Detector{MinTextLength: minTextLength}
}

// NeedsRender reports whether body looks like a client-rendered shell: empty,
// dominated by scripts, or an SPA mount point with little readable text.
func (d *Detector) NeedsRender(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if scriptDensityHigh(body) {
		return true
	}
	textLen := visibleTextLength(body)
	if textLen >= d.MinTextLength {
		return false
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return textLen == 0
}

func visibleTextLength(body []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0
	}
	doc.Find("script, style, noscript, template").Remove()
	return len(strings.Join(strings.Fields(doc.Find("body").Text()), " "))
}

// scriptDensityHigh reports whether script elements cover at least a quarter
// of the document.
func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	covered, pos := 0, 0
	for {
		rel := strings.Index(lower[pos:], openTag)
		if rel == -1 {
			break
		}
		start := pos + rel
		end := total
		if gt := strings.IndexByte(lower[start:], '>'); gt != -1 {
			contentStart := start + gt + 1
			if c := strings.Index(lower[contentStart:], closeTag); c != -1 {
				end = contentStart + c + len(closeTag)
			}
		}
		covered += end - start
		pos = end
	}
	return covered > 0 && covered*100/total >= 25
}
