package hdrutil_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanrbts/wscan/hdrutil"
)

func TestCaseInsensitiveGetSet(t *testing.T) {
	h := hdrutil.New()
	h.Add("Content-Type", "text/html")
	require.Equal(t, "text/html", h.Get("content-type"))
	require.True(t, h.Has("CONTENT-TYPE"))

	h.Set("content-type", "application/json")
	require.Equal(t, []string{"application/json"}, h.Values("Content-Type"))
}

func TestPreservesOrder(t *testing.T) {
	h := hdrutil.New()
	h.Add("A", "1")
	h.Add("B", "2")
	h.Add("A", "3")
	require.Equal(t, []string{"1", "3"}, h.Values("a"))

	var b strings.Builder
	h.WriteLines(&b)
	require.Equal(t, "A: 1\r\nB: 2\r\nA: 3\r\n", b.String())
}

func TestCanonical(t *testing.T) {
	require.Equal(t, "Content-Type", hdrutil.Canonical("content-type"))
	require.Equal(t, "Set-Cookie", hdrutil.Canonical("SET-COOKIE"))
}
