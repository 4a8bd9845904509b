package urlutil_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanrbts/wscan/urlutil"
)

func TestCanonicalizeEquivalence(t *testing.T) {
	c1, err := urlutil.Canonicalize("http://Example.com/a")
	require.NoError(t, err)
	c2, err := urlutil.Canonicalize("http://example.com/a")
	require.NoError(t, err)
	require.Equal(t, c1, c2)
}

func TestCanonicalizeRejectsNonHTTP(t *testing.T) {
	_, err := urlutil.Canonicalize("ftp://example.com/a")
	require.Error(t, err)

	_, err = urlutil.Canonicalize("not a url at all \x7f")
	_ = err // may or may not error depending on stdlib leniency; no assertion
}

func TestHostAndPort(t *testing.T) {
	h, err := urlutil.Host("https://example.com:8443/path")
	require.NoError(t, err)
	require.Equal(t, "example.com", h)

	p, err := urlutil.Port("https://example.com:8443/path")
	require.NoError(t, err)
	require.Equal(t, "8443", p)

	p2, err := urlutil.Port("http://example.com/path")
	require.NoError(t, err)
	require.Equal(t, "80", p2)

	p3, err := urlutil.Port("https://example.com/path")
	require.NoError(t, err)
	require.Equal(t, "443", p3)
}

func TestFLD(t *testing.T) {
	require.Equal(t, "example.com", urlutil.FLD("www.example.com"))
	require.Equal(t, "example.co.uk", urlutil.FLD("www.example.co.uk"))
}

func TestResolveVerbatimForAbsolute(t *testing.T) {
	out, err := urlutil.Resolve("http://h/base", "http://other/y")
	require.NoError(t, err)
	require.Equal(t, "http://other/y", out)

	out, err = urlutil.Resolve("http://h/base", "//other/z")
	require.NoError(t, err)
	require.Equal(t, "//other/z", out)
}

func TestResolveRelative(t *testing.T) {
	out, err := urlutil.Resolve("http://h/base", "/x")
	require.NoError(t, err)
	require.Equal(t, "http://h/x", out)
}

func TestResolveEncodesSpaces(t *testing.T) {
	out, err := urlutil.Resolve("http://h/base/", "has space.html")
	require.NoError(t, err)
	require.Contains(t, out, "%20")
}
