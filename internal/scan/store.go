package scan

import (
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/pagelens/pagelens/internal/model"
	"github.com/pagelens/pagelens/internal/urlutil"
)

// ResultStore holds the latest ScanResult per URL. Entries are keyed by the
// canonical URL so equivalent spellings (trailing slash, default port) share
// one entry, replaced atomically by key, and enumerate in first-seen order.
// Replacing a completed result records a summary of how the document text
// changed.
type ResultStore struct {
	mu      sync.RWMutex
	byURL   map[string]int
	entries []model.ScanEntry
	dmp     *diffmatchpatch.DiffMatchPatch
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		byURL: map[string]int{},
		dmp:   diffmatchpatch.New(),
	}
}

// Replace stores result under its URL, superseding any previous entry. When
// both the old and new results carry document text, the new result gains a
// ChangeSummary describing the difference.
func (s *ResultStore) Replace(result model.ScanResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := urlutil.Key(result.URL)
	if idx, ok := s.byURL[key]; ok {
		prev := s.entries[idx].Result
		if prev.HTML != "" && result.HTML != "" && result.ChangeSummary == nil {
			result.ChangeSummary = s.summarize(prev.HTML, result.HTML)
		}
		s.entries[idx] = model.ScanEntry{URL: result.URL, Result: result}
		return
	}

	s.byURL[key] = len(s.entries)
	s.entries = append(s.entries, model.ScanEntry{URL: result.URL, Result: result})
}

func (s *ResultStore) summarize(before, after string) *model.ChangeSummary {
	diffs := s.dmp.DiffMain(before, after, false)
	sum := &model.ChangeSummary{}
	for _, d := range diffs {
		n := len(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			sum.Inserted += n
		case diffmatchpatch.DiffDelete:
			sum.Deleted += n
		case diffmatchpatch.DiffEqual:
			sum.Unchanged += n
		}
	}
	return sum
}

// Get returns the stored result for url. Any spelling that canonicalizes to
// the same key finds the entry.
func (s *ResultStore) Get(url string) (model.ScanResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byURL[urlutil.Key(url)]
	if !ok {
		return model.ScanResult{}, false
	}
	return s.entries[idx].Result, true
}

// All returns a copy of every entry in first-seen order.
func (s *ResultStore) All() []model.ScanEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ScanEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// PendingURLs returns the URLs whose latest result is still pending, in store
// order. Callers that dispatch on pending pages must call this at dispatch
// time so the set is never stale.
func (s *ResultStore) PendingURLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var urls []string
	for _, e := range s.entries {
		if e.Result.Status == model.ScanPending {
			urls = append(urls, e.URL)
		}
	}
	return urls
}

// MarkPending records url as discovered-but-unscanned unless any result for
// it already exists.
func (s *ResultStore) MarkPending(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := urlutil.Key(url)
	if _, ok := s.byURL[key]; ok {
		return
	}
	s.byURL[key] = len(s.entries)
	s.entries = append(s.entries, model.ScanEntry{
		URL:    url,
		Result: model.ScanResult{URL: url, Status: model.ScanPending},
	})
}

// MarkScanning flags the entry for url as in flight. The rest of the stored
// result survives so a re-scan can still be diffed against the previous
// document.
func (s *ResultStore) MarkScanning(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := urlutil.Key(url)
	if idx, ok := s.byURL[key]; ok {
		s.entries[idx].Result.Status = model.ScanScanning
		return
	}
	s.byURL[key] = len(s.entries)
	s.entries = append(s.entries, model.ScanEntry{
		URL:    url,
		Result: model.ScanResult{URL: url, Status: model.ScanScanning},
	})
}

// Load replaces the store contents with a previously exported entry list,
// keeping its order. Duplicate URLs keep the first occurrence.
func (s *ResultStore) Load(entries []model.ScanEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byURL = map[string]int{}
	s.entries = s.entries[:0]
	for _, e := range entries {
		key := urlutil.Key(e.URL)
		if _, ok := s.byURL[key]; ok {
			continue
		}
		s.byURL[key] = len(s.entries)
		s.entries = append(s.entries, e)
	}
}
