package linkextract_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanrbts/wscan/linkextract"
)

func TestHTMLExtractDocumentOrder(t *testing.T) {
	body := `<html><a href="/x">A</a><a href="http://other/y">B</a></html>`
	links, err := linkextract.Extract("text/html", []byte(body), "http://h/base")
	require.NoError(t, err)
	require.Equal(t, []string{"/x", "http://other/y"}, links)
}

func TestHTMLExtractWithCharset(t *testing.T) {
	body := `<a href="/z">Z</a>`
	links, err := linkextract.Extract("text/html; charset=utf-8", []byte(body), "http://h/base")
	require.NoError(t, err)
	require.Equal(t, []string{"/z"}, links)
}

func TestJSExtractCombinesPathsAndFiltersDomain(t *testing.T) {
	body := `
		fetch("/api/v1/items");
		var other = "https://other.example/page";
		var mine = 'https://h/page2';
		var rel = "./sub/page3";
	`
	links, err := linkextract.Extract("application/javascript", []byte(body), "https://h/base/")
	require.NoError(t, err)

	require.Contains(t, links, "https://h/api/v1/items")
	require.Contains(t, links, "https://h/page2")
	require.Contains(t, links, "https://h/base/sub/page3")
	require.NotContains(t, links, "https://other.example/page")
}

func TestOtherContentTypeNoExtraction(t *testing.T) {
	links, err := linkextract.Extract("application/x-shockwave-flash", []byte("whatever"), "http://h/")
	require.NoError(t, err)
	require.Nil(t, links)
}

func TestJSFullURLDedup(t *testing.T) {
	body := `"https://h/a"; "https://h/a"; "https://h/a"`
	links, err := linkextract.Extract("text/javascript", []byte(body), "https://h/")
	require.NoError(t, err)
	count := 0
	for _, l := range links {
		if l == "https://h/a" {
			count++
		}
	}
	require.Equal(t, 1, count)
}
