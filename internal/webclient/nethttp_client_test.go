package webclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
)

func TestNetHTTPClientDo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("user agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer ts.Close()

	wc, err := NewNetHTTPClient(Config{Timeout: 5 * time.Second}, logging.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	defer wc.Close()

	headers := http.Header{}
	headers.Set("User-Agent", "test-agent")
	resp, err := wc.Do(context.Background(), &model.Request{Method: "GET", URL: ts.URL, Headers: headers})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != "<html>ok</html>" {
		t.Errorf("body = %q", resp.Body)
	}
	if resp.Headers.Get("Content-Type") != "text/html" {
		t.Errorf("content type = %q", resp.Headers.Get("Content-Type"))
	}
}

func TestNetHTTPClientBodyLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer ts.Close()

	wc, err := NewNetHTTPClient(Config{MaxBodySize: 100}, logging.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	defer wc.Close()

	resp, err := wc.Do(context.Background(), &model.Request{Method: "GET", URL: ts.URL})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(resp.Body) != 100 {
		t.Errorf("body length = %d, want the 100 byte cap", len(resp.Body))
	}
}

func TestNetHTTPClientProxyPrefix(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		w.Write([]byte("proxied"))
	}))
	defer ts.Close()

	wc, err := NewNetHTTPClient(Config{ProxyPrefix: ts.URL + "/forward?target="}, logging.NopLogger{}, nil)
	if err != nil {
		t.Fatalf("NewNetHTTPClient: %v", err)
	}
	defer wc.Close()

	resp, err := wc.Do(context.Background(), &model.Request{Method: "GET", URL: "https://example.com/page"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if string(resp.Body) != "proxied" {
		t.Errorf("body = %q", resp.Body)
	}
	wantTarget := url.QueryEscape("https://example.com/page")
	if !strings.Contains(gotPath, wantTarget) {
		t.Errorf("proxy path %q does not carry the escaped target %q", gotPath, wantTarget)
	}
}

func TestNetHTTPClientNilRequest(t *testing.T) {
	wc, _ := NewNetHTTPClient(Config{}, logging.NopLogger{}, nil)
	defer wc.Close()
	if _, err := wc.Do(context.Background(), nil); err == nil {
		t.Error("nil request should error")
	}
}

func TestFactoryDefaultsToNetHTTP(t *testing.T) {
	wc, err := New(Config{}, logging.NopLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wc.Close()
	if _, ok := wc.(*NetHTTPClient); !ok {
		t.Errorf("default backend is %T, want *NetHTTPClient", wc)
	}
}

func TestFactoryUnknownBackend(t *testing.T) {
	if _, err := New(Config{Backend: "carrier-pigeon"}, logging.NopLogger{}); err == nil {
		t.Error("unknown backend should error")
	}
}

func TestListBackends(t *testing.T) {
	names := ListBackends()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found[BackendNetHTTP] || !found[BackendChromeDP] {
		t.Errorf("backends = %v", names)
	}
}
