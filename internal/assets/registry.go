package assets

import (
	"errors"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
	"github.com/pagelens/pagelens/internal/urlutil"
)

// ErrAssetNotFound is returned when an update names a URL the registry never
// recorded.
var ErrAssetNotFound = errors.New("asset not found")

// Registry collects the sub-resources discovered across scans. An asset's
// identity is its canonicalized URL, so equivalent spellings collapse to one
// entry: the first registration decides the type, later registrations of the
// same URL are ignored. Iteration order is insertion order.
type Registry struct {
	mu     sync.RWMutex
	byURL  map[string]int
	assets []model.Asset
	logger logging.Logger
}

func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{
		byURL:  map[string]int{},
		logger: logger.With(logging.Field{Key: "component", Value: "assets"}),
	}
}

// Register records a discovered asset URL with pending status. It reports
// whether the URL was new.
func (r *Registry) Register(rawURL string, typ model.AssetType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := urlutil.Key(rawURL)
	if _, exists := r.byURL[key]; exists {
		return false
	}

	r.byURL[key] = len(r.assets)
	r.assets = append(r.assets, model.Asset{
		URL:    rawURL,
		Type:   typ,
		Status: model.AssetPending,
	})
	return true
}

// RegisterAll registers every URL under the given type and returns how many
// were new.
func (r *Registry) RegisterAll(urls []string, typ model.AssetType) int {
	added := 0
	for _, u := range urls {
		if r.Register(u, typ) {
			added++
		}
	}
	if added > 0 {
		r.logger.Debug("registered assets",
			logging.Field{Key: "type", Value: string(typ)},
			logging.Field{Key: "added", Value: added})
	}
	return added
}

// UpdateStatus moves an asset to a new status, optionally attaching probe
// results (size, metadata). Metadata keys merge over existing ones.
func (r *Registry) UpdateStatus(rawURL string, status model.AssetStatus, size int64, metadata map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byURL[urlutil.Key(rawURL)]
	if !ok {
		return ErrAssetNotFound
	}

	a := &r.assets[idx]
	a.Status = status
	if size > 0 {
		a.Size = size
	}
	if len(metadata) > 0 {
		if a.Metadata == nil {
			a.Metadata = map[string]string{}
		}
		for k, v := range metadata {
			a.Metadata[k] = v
		}
	}
	return nil
}

// Get returns the asset stored for rawURL.
func (r *Registry) Get(rawURL string) (model.Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byURL[urlutil.Key(rawURL)]
	if !ok {
		return model.Asset{}, false
	}
	return r.assets[idx], true
}

// List returns a copy of all assets in insertion order.
func (r *Registry) List() []model.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Asset, len(r.assets))
	copy(out, r.assets)
	return out
}

// Load replaces the registry contents with a previously exported list,
// preserving its order. Duplicate URLs keep the first occurrence.
func (r *Registry) Load(list []model.Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byURL = map[string]int{}
	r.assets = r.assets[:0]
	for _, a := range list {
		key := urlutil.Key(a.URL)
		if _, exists := r.byURL[key]; exists {
			continue
		}
		r.byURL[key] = len(r.assets)
		r.assets = append(r.assets, a)
	}
}

var extensionTypes = map[string]model.AssetType{
	".jpg":  model.AssetImage,
	".jpeg": model.AssetImage,
	".png":  model.AssetImage,
	".gif":  model.AssetImage,
	".webp": model.AssetImage,
	".svg":  model.AssetImage,
	".ico":  model.AssetImage,
	".js":   model.AssetScript,
	".mjs":  model.AssetScript,
	".css":  model.AssetStylesheet,
	".pdf":  model.AssetPDF,
	".mp4":  model.AssetVideo,
	".webm": model.AssetVideo,
	".mov":  model.AssetVideo,
	".mp3":  model.AssetAudio,
	".wav":  model.AssetAudio,
	".ogg":  model.AssetAudio,
}

// ClassifyURL guesses an asset type from the URL's path extension. Unknown or
// missing extensions fall back to the generic document type.
func ClassifyURL(rawURL string) model.AssetType {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.AssetDocument
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if typ, ok := extensionTypes[ext]; ok {
		return typ
	}
	return model.AssetDocument
}
