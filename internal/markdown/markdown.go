// Package markdown converts documentation HTML into GitHub-flavored Markdown.
package markdown

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

// StripSelector lists the page chrome removed before conversion.
const StripSelector = "script, style, nav, footer, header"

// Converter turns HTML pages into Markdown. It is safe for concurrent use.
type Converter struct {
	conv *md.Converter
}

// NewConverter builds a Converter with the GFM plugin and title-preserving
// image and link rules.
func NewConverter() *Converter {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		CodeBlockStyle:   "fenced",
		BulletListMarker: "-",
	})
	conv.Use(plugin.GitHubFlavored())
	conv.AddRules(imageRule(), linkRule())
	return &Converter{conv: conv}
}

// Convert strips page chrome from html, rewrites relative links and image
// sources against pageURL and returns the Markdown body.
func (c *Converter) Convert(html []byte, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(StripSelector).Remove()

	if base, err := url.Parse(pageURL); err == nil && base.IsAbs() {
		absolutize(doc, base)
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return strings.TrimSpace(c.conv.Convert(root)), nil
}

func absolutize(doc *goquery.Document, base *url.URL) {
	rewrite := func(attr string) func(int, *goquery.Selection) {
		return func(_ int, s *goquery.Selection) {
			raw, ok := s.Attr(attr)
			if !ok || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "data:") {
				return
			}
			ref, err := url.Parse(strings.TrimSpace(raw))
			if err != nil {
				return
			}
			s.SetAttr(attr, base.ResolveReference(ref).String())
		}
	}
	doc.Find("a[href]").Each(rewrite("href"))
	doc.Find("img[src]").Each(rewrite("src"))
}

func imageRule() md.Rule {
	return md.Rule{
		Filter: []string{"img"},
		Replacement: func(_ string, selec *goquery.Selection, _ *md.Options) *string {
			src := strings.TrimSpace(selec.AttrOr("src", ""))
			if src == "" {
				return md.String("")
			}
			alt := strings.TrimSpace(selec.AttrOr("alt", ""))
			return md.String(fmt.Sprintf("![%s](%s%s)", alt, src, titlePart(selec)))
		},
	}
}

func linkRule() md.Rule {
	return md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, _ *md.Options) *string {
			href := strings.TrimSpace(selec.AttrOr("href", ""))
			text := strings.TrimSpace(content)
			if href == "" {
				return md.String(text)
			}
			if text == "" {
				return md.String("")
			}
			return md.String(fmt.Sprintf("[%s](%s%s)", text, href, titlePart(selec)))
		},
	}
}

// titlePart renders the optional title suffix of a link destination.
func titlePart(selec *goquery.Selection) string {
	title := strings.TrimSpace(selec.AttrOr("title", ""))
	if title == "" {
		return ""
	}
	return ` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`
}
