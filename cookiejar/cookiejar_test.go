package cookiejar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanrbts/wscan/cookiejar"
)

func TestRoundTrip(t *testing.T) {
	j := cookiejar.New()
	ok := j.SetCookie("h", "/p", true, "k=v; Path=/; Domain=h")
	require.True(t, ok)

	require.Equal(t, "k=v", j.Cookies("h", "/p", true))
	require.Equal(t, "k=v", j.Cookies("h", "/p/sub", true))
}

func TestSecureSuppression(t *testing.T) {
	j := cookiejar.New()
	ok := j.SetCookie("h", "/", false, "s=1; Secure")
	require.False(t, ok, "secure cookie must not be stored from a plaintext response")
	require.Equal(t, 0, j.Count())

	ok = j.SetCookie("h", "/", true, "s=1; Secure")
	require.True(t, ok)
	require.Equal(t, "", j.Cookies("h", "/", false))
	require.Equal(t, "s=1", j.Cookies("h", "/", true))
}

func TestMaxAgeZeroNeverEmitted(t *testing.T) {
	j := cookiejar.New()
	j.SetCookie("h", "/", true, "k=v; Max-Age=0")
	require.Equal(t, "", j.Cookies("h", "/", true))
}

func TestExpiresPastPurgedOnEmit(t *testing.T) {
	j := cookiejar.New()
	past := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC1123)
	j.SetCookie("h", "/", true, "k=v; Expires="+past)
	require.Equal(t, "", j.Cookies("h", "/", true))
	require.Equal(t, 0, j.Count())
}

func TestDomainMatch(t *testing.T) {
	j := cookiejar.New()
	j.SetCookie("example.com", "/", true, "k=v; Domain=example.com")

	require.Equal(t, "k=v", j.Cookies("example.com", "/", true))
	require.Equal(t, "k=v", j.Cookies("a.example.com", "/", true))
	require.Equal(t, "", j.Cookies("notexample.com", "/", true))
	require.Equal(t, "", j.Cookies("example.com.evil", "/", true))
}

func TestUniquifyByName(t *testing.T) {
	j := cookiejar.New()
	j.SetCookie("h", "/", true, "K=1; Path=/")
	j.SetCookie("h", "/", true, "k=2; Path=/")
	require.Equal(t, 1, j.Count())
	require.Equal(t, "k=2", j.Cookies("h", "/", true))
}

func TestMissingEqualsDropsCookie(t *testing.T) {
	_, ok := cookiejar.ParseSetCookie("justsomejunk", "h", "/", time.Now())
	require.False(t, ok)
}

func TestParseSetCookieExpiresFormats(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, ok := cookiejar.ParseSetCookie("k=v; Expires=Wed, 09 Jun 2027 10:18:14 GMT", "h", "/", now)
	require.True(t, ok)
	require.True(t, c.Expires.After(now))

	c2, ok := cookiejar.ParseSetCookie("k=v; Expires=Wednesday, 09-Jun-27 10:18:14 GMT", "h", "/", now)
	require.True(t, ok)
	require.True(t, c2.Expires.After(now))

	c3, ok := cookiejar.ParseSetCookie("k=v; Expires=Wed Jun  9 10:18:14 2027", "h", "/", now)
	require.True(t, ok)
	require.True(t, c3.Expires.After(now))
}
