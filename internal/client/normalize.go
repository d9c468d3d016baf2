package client

import (
	"strings"

	"storefront/admin/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

const blockElements = "br, p, div, li, tr, h1, h2, h3, h4, h5, h6, blockquote"

// NormalizeProduct fills the plain text summary from the HTML description
func NormalizeProduct(p *domain.Product) {
	p.Summary = PlainText(p.Description)
}

// PlainText extracts readable text from an HTML fragment with whitespace collapsed
func PlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Warnf("Failed to parse HTML description: %v", err)
		return strings.Join(strings.Fields(html), " ")
	}

	doc.Find("script, style").Remove()
	doc.Find(blockElements).Each(func(i int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return strings.Join(strings.Fields(doc.Text()), " ")
}
