package audit

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// skippedExtensions lists asset paths a crawl should never audit.
var skippedExtensions = []string{
	".pdf", ".zip", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp",
	".mp4", ".mp3", ".css", ".js", ".xml", ".ico",
}

// DiscoverLinks extracts same-origin page links from rendered HTML, for
// the crawl frontier. Fragments are stripped, assets and non-HTTP
// schemes are skipped, and duplicates collapse in document order.
func DiscoverLinks(html, base string) []string {
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		u, err := baseURL.Parse(href)
		if err != nil {
			return
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return
		}
		if u.Host != baseURL.Host {
			return
		}
		lower := strings.ToLower(u.Path)
		for _, ext := range skippedExtensions {
			if strings.HasSuffix(lower, ext) {
				return
			}
		}

		u.Fragment = ""
		link := u.String()
		if link == base || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})

	return links
}
