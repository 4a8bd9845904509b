//go:build unix

package httpclient_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanrbts/wscan/cookiejar"
	"github.com/yanrbts/wscan/httpclient"
	"github.com/yanrbts/wscan/reactor"
)

// startDispatch runs r.Dispatch on its own goroutine and returns a stop
// function that calls r.Stop and waits for Dispatch to return.
func startDispatch(t *testing.T, r *reactor.Reactor) func() {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Dispatch()
	}()
	return func() {
		r.Stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("reactor did not stop")
		}
	}
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "1")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	c, err := httpclient.New(r)
	require.NoError(t, err)
	defer c.Close()

	stop := startDispatch(t, r)
	defer stop()

	var mu sync.Mutex
	var body []byte
	var headerLines []string
	done := make(chan struct{})
	var status, transport int

	_, err = c.Get(srv.URL, func(line string, user any) {
		mu.Lock()
		headerLines = append(headerLines, line)
		mu.Unlock()
	}, func(data []byte, user any) {
		mu.Lock()
		body = append(body, data...)
		mu.Unlock()
	}, func(handle *httpclient.RequestHandle, httpStatus, transportResult int, user any) {
		status = httpStatus
		transport = transportResult
		close(done)
	}, nil)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("request did not complete")
	}

	require.Equal(t, 200, status)
	require.Equal(t, 0, transport)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "hello", string(body))
	require.NotEmpty(t, headerLines)
}

func TestRedirectChain(t *testing.T) {
	var mux http.ServeMux
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusFound)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("landed"))
	})
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	c, err := httpclient.New(r)
	require.NoError(t, err)
	defer c.Close()

	stop := startDispatch(t, r)
	defer stop()

	var body []byte
	done := make(chan struct{})
	var status int

	_, err = c.Get(srv.URL+"/start", nil, func(data []byte, user any) {
		body = append(body, data...)
	}, func(handle *httpclient.RequestHandle, httpStatus, transportResult int, user any) {
		status = httpStatus
		close(done)
	}, nil)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("request did not complete")
	}

	require.Equal(t, 200, status)
	require.Equal(t, "landed", string(body))
}

func TestCancelSuppressesCompletion(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		_, _ = w.Write([]byte("too late"))
	}))
	defer srv.Close()
	defer close(block)

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	c, err := httpclient.New(r)
	require.NoError(t, err)
	defer c.Close()

	stop := startDispatch(t, r)
	defer stop()

	called := make(chan struct{})
	handle, err := c.Get(srv.URL, nil, nil, func(handle *httpclient.RequestHandle, httpStatus, transportResult int, user any) {
		close(called)
	}, nil)
	require.NoError(t, err)

	require.True(t, c.Cancel(handle))
	require.False(t, c.Cancel(handle))

	select {
	case <-called:
		t.Fatal("complete_cb fired after cancel")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCookieJarRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/set" {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc"})
			_, _ = w.Write([]byte("set"))
			return
		}
		cookie, err := r.Cookie("sid")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("echo:" + cookie.Value))
	}))
	defer srv.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	jar := cookiejar.New()
	c, err := httpclient.New(r, httpclient.WithCookieJar(jar))
	require.NoError(t, err)
	defer c.Close()

	stop := startDispatch(t, r)
	defer stop()

	fetch := func(path string) (string, int) {
		var body []byte
		var status int
		done := make(chan struct{})
		_, err := c.Get(srv.URL+path, nil, func(data []byte, user any) {
			body = append(body, data...)
		}, func(handle *httpclient.RequestHandle, httpStatus, transportResult int, user any) {
			status = httpStatus
			close(done)
		}, nil)
		require.NoError(t, err)
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("request did not complete")
		}
		return string(body), status
	}

	body, status := fetch("/set")
	require.Equal(t, 200, status)
	require.Equal(t, "set", body)
	require.Equal(t, 1, jar.Count())

	body, status = fetch("/check")
	require.Equal(t, 200, status)
	require.Equal(t, "echo:abc", body)
}

func TestPostBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		fmt.Fprintf(w, "ct=%s", r.Header.Get("Content-Type"))
	}))
	defer srv.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	c, err := httpclient.New(r)
	require.NoError(t, err)
	defer c.Close()

	stop := startDispatch(t, r)
	defer stop()

	var body []byte
	done := make(chan struct{})
	_, err = c.Post(srv.URL, []byte("a=1"), nil, func(data []byte, user any) {
		body = append(body, data...)
	}, func(handle *httpclient.RequestHandle, httpStatus, transportResult int, user any) {
		close(done)
	}, nil)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("request did not complete")
	}

	require.Equal(t, "ct=application/x-www-form-urlencoded", string(body))
}
