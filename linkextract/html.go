package linkextract

import (
	"bytes"

	"golang.org/x/net/html"
)

// extractHTML parses body as HTML and enumerates every <a> element's href
// attribute verbatim, in document order, grounded on the content-type
// dispatch shape used throughout the colly-family crawlers in the example
// pack (parse once, walk the DOM, collect one attribute per anchor).
func extractHTML(body []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					hrefs = append(hrefs, attr.Val)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return hrefs, nil
}
