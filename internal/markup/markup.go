// Package markup extracts what the triage engine needs from an entry's
// summary markup: outbound links, plain text, and link renderings.
package markup

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	percentEscapeRe = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
	nonLetterRe     = regexp.MustCompile(`[^A-Za-z]+`)
)

// Links returns the href of every anchor in the summary, in document order.
func Links(summary string) []string {
	doc, err := parse(summary)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			links = append(links, href)
		}
	})
	return links
}

// Text returns the plain text content of the summary.
func Text(summary string) string {
	doc, err := parse(summary)
	if err != nil {
		return summary
	}
	return doc.Text()
}

// SecondLevelDomain returns the last two labels of the link's hostname.
// "news.bbc.co.uk" yields "co.uk"; no public-suffix awareness is applied.
func SecondLevelDomain(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return strings.Join(labels, "."), true
}

// LinkText renders a link as training text: its second-level domain
// followed by the alphabetic segments of its path.
func LinkText(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	var parts []string
	if domain, ok := SecondLevelDomain(rawURL); ok {
		parts = append(parts, domain)
	}

	path := percentEscapeRe.ReplaceAllString(u.EscapedPath(), " ")
	for _, seg := range nonLetterRe.Split(path, -1) {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, " ")
}

func parse(summary string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(summary))
}
