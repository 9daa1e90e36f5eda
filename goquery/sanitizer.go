// Package goquery implements clarifyr.Sanitizer on top of goquery's
// CSS selector engine.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/clarifyr"
	"golang.org/x/net/html"
)

// Ensure Sanitizer implements clarifyr.Sanitizer at compile time.
var _ clarifyr.Sanitizer = (*Sanitizer)(nil)

// DenySelectors lists elements that never carry explainable content.
var DenySelectors = []string{
	// Non-rendered and embedded markup.
	"script", "style", "noscript", "template", "iframe",

	// Page chrome.
	"nav", "header", "footer",

	// Ads.
	`[class~="ad"]`, `[class~="ads"]`, `[class~="advert"]`, `[class~="advertisement"]`,
	`[id="ad"]`, `[id^="ad-"]`, `[id^="ads-"]`, `[class*="ad-banner"]`, `[class*="ad-slot"]`,
	`[class*="sponsored"]`, `[aria-label="advertisement"]`,

	// Cookie and consent banners. Matched on banner-shaped names only, since
	// consent plugins also tag <html>, <body> and page wrappers with state
	// classes such as "cookies-not-set".
	`[class*="cookie-banner"]`, `[class*="cookie-consent"]`, `[class*="cookie-notice"]`,
	`[class*="cookie-bar"]`, `[class*="cookie-popup"]`,
	`[id*="cookie-banner"]`, `[id*="cookie-consent"]`, `[id*="cookie-notice"]`,
	`[class*="consent-banner"]`, `[class*="consent-modal"]`, `[id*="consent-banner"]`,
	`[class~="gdpr"]`, `[class*="gdpr-banner"]`, `[id*="gdpr-banner"]`, `[id*="gdpr-consent"]`,
}

// Sanitizer removes DenySelectors from inside a document's body and
// flattens the text of what remains.
type Sanitizer struct {
	selector string
}

// NewSanitizer creates a new Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{selector: strings.Join(DenySelectors, ", ")}
}

// Sanitize returns the whitespace-collapsed body text of rawHTML.
//
// The result is plain text, not markup. Sanitizing it again is a no-op
// only when it contains no tag-like or entity-like sequences: text that
// quotes "<script>" or "&lt;" is parsed as markup on a second pass.
func (s *Sanitizer) Sanitize(rawHTML string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	body := doc.Find("body")
	body.Find(s.selector).Remove()

	return Text(body)
}

// Text returns the whitespace-collapsed text of the selection. Block-level
// elements are separated by a space so adjacent paragraphs do not run
// together; inline elements are not.
func Text(sel *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range sel.Nodes {
		writeText(&sb, n)
	}
	return clarifyr.CollapseWhitespace(sb.String())
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		sb.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
	if block {
		sb.WriteByte(' ')
	}
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "details": true, "div": true, "dl": true,
	"dt": true, "figcaption": true, "figure": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"hr": true, "li": true, "main": true, "ol": true, "p": true,
	"pre": true, "section": true, "summary": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}
