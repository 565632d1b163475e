package webclient

import (
	"context"
	"time"

	"github.com/pagelens/pagelens/internal/model"
)

// WebClient executes HTTP requests against the outside world. Backends may be
// a plain net/http client or a rendering browser; callers only depend on
// "given a URL, eventually get document text or a typed failure".
type WebClient interface {
	Do(ctx context.Context, req *model.Request) (*model.Response, error)

	Close() error
}

// Backend names for Config.Backend.
const (
	BackendNetHTTP  = "nethttp"
	BackendChromeDP = "chromedp"
)

// Config holds transport options shared by all backends.
type Config struct {
	// Backend selects the registered backend; empty means nethttp.
	Backend string `yaml:"backend"`

	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout"`

	// MaxBodySize caps how many response bytes are read.
	MaxBodySize int64 `yaml:"max_body_size"`

	// ProxyPrefix, when set, is prepended to every request URL so fetches are
	// routed through an opaque forwarding layer. The target URL is
	// query-escaped and appended to the prefix.
	ProxyPrefix string `yaml:"proxy_prefix"`
}

// DefaultConfig returns sensible development defaults.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendNetHTTP,
		Timeout:     30 * time.Second,
		MaxBodySize: 10 * 1024 * 1024,
	}
}
