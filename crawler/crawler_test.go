package crawler_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanrbts/wscan/crawler"
	"github.com/yanrbts/wscan/reactor"
)

func TestLinkExtractionEnqueuesBothLinks(t *testing.T) {
	var mu sync.Mutex
	visitedOrder := map[string]bool{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/base":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><a href="/x">A</a><a href="/y">B</a></html>`))
		case "/x", "/y":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("leaf"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	cr, err := crawler.New(r, crawler.Config{MaxConcurrent: 2, MaxDepth: 5}, func(cr *crawler.Crawler, url string, status int, body []byte, user any) {
		mu.Lock()
		visitedOrder[url] = true
		mu.Unlock()
	}, func(cr *crawler.Crawler, url string, transportCode int, user any) {}, nil)
	require.NoError(t, err)
	defer cr.Free()

	require.True(t, cr.AddURL(srv.URL+"/base"))

	done := make(chan struct{})
	go func() {
		_, _ = r.Dispatch()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		r.Stop()
		t.Fatal("crawl did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	require.True(t, visitedOrder[srv.URL+"/base"])
	require.True(t, visitedOrder[srv.URL+"/x"])
	require.True(t, visitedOrder[srv.URL+"/y"])

	stats := cr.Stats()
	require.Equal(t, 3, stats.Succeeded)
	require.Equal(t, 0, stats.Failed)
}

func TestMaxDepthZeroDiscardsLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<a href="/child">C</a>`))
	}))
	defer srv.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	var completed int
	var mu sync.Mutex
	cr, err := crawler.New(r, crawler.Config{MaxConcurrent: 2, MaxDepth: 0}, func(cr *crawler.Crawler, url string, status int, body []byte, user any) {
		mu.Lock()
		completed++
		mu.Unlock()
	}, func(cr *crawler.Crawler, url string, transportCode int, user any) {}, nil)
	require.NoError(t, err)
	defer cr.Free()

	require.True(t, cr.AddURL(srv.URL+"/"))

	done := make(chan struct{})
	go func() {
		_, _ = r.Dispatch()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		r.Stop()
		t.Fatal("crawl did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, completed)
}

func TestErrorCallbackOnNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	errs := make(chan int, 1)
	cr, err := crawler.New(r, crawler.Config{MaxConcurrent: 1, MaxDepth: 1}, func(cr *crawler.Crawler, url string, status int, body []byte, user any) {
	}, func(cr *crawler.Crawler, url string, transportCode int, user any) {
		errs <- transportCode
	}, nil)
	require.NoError(t, err)
	defer cr.Free()

	require.True(t, cr.AddURL(srv.URL+"/missing"))

	done := make(chan struct{})
	go func() {
		_, _ = r.Dispatch()
		close(done)
	}()

	select {
	case code := <-errs:
		require.Equal(t, 0, code) // transport succeeded; status was just non-2xx
	case <-time.After(5 * time.Second):
		t.Fatal("error_cb never fired")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		r.Stop()
		t.Fatal("crawl did not finish")
	}
}

func TestDuplicateAddURLReturnsFalseOnceVisited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	cr, err := crawler.New(r, crawler.Config{MaxConcurrent: 1, MaxDepth: 1}, func(cr *crawler.Crawler, url string, status int, body []byte, user any) {
	}, func(cr *crawler.Crawler, url string, transportCode int, user any) {}, nil)
	require.NoError(t, err)
	defer cr.Free()

	require.True(t, cr.AddURL(srv.URL+"/"))
	require.True(t, cr.AddURL(srv.URL+"/")) // still unvisited, both enqueue

	done := make(chan struct{})
	go func() {
		_, _ = r.Dispatch()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		r.Stop()
		t.Fatal("crawl did not finish")
	}

	require.False(t, cr.AddURL(srv.URL+"/")) // now visited, rejected
}
