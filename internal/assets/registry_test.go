package assets

import (
	"errors"
	"testing"

	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
)

func TestRegisterDedupFirstTypeWins(t *testing.T) {
	r := NewRegistry(logging.NopLogger{})

	if !r.Register("https://example.com/a.png", model.AssetImage) {
		t.Fatal("first registration should report new")
	}
	if r.Register("https://example.com/a.png", model.AssetScript) {
		t.Fatal("second registration of the same URL should be a no-op")
	}

	list := r.List()
	if len(list) != 1 {
		t.Fatalf("got %d assets, want 1", len(list))
	}
	if list[0].Type != model.AssetImage {
		t.Errorf("type = %q, want the first occurrence to win", list[0].Type)
	}
	if list[0].Status != model.AssetPending {
		t.Errorf("status = %q, want pending", list[0].Status)
	}
}

func TestRegisterDedupsEquivalentURLs(t *testing.T) {
	r := NewRegistry(logging.NopLogger{})

	if !r.Register("https://example.com:443/app.js", model.AssetScript) {
		t.Fatal("first registration should report new")
	}
	if r.Register("https://example.com/app.js", model.AssetScript) {
		t.Fatal("default-port spelling should hit the same entry")
	}

	if err := r.UpdateStatus("https://EXAMPLE.com/app.js", model.AssetScanned, 5, nil); err != nil {
		t.Fatalf("UpdateStatus by equivalent spelling: %v", err)
	}
	a, ok := r.Get("https://example.com/app.js")
	if !ok || a.Status != model.AssetScanned {
		t.Errorf("asset = %+v, %v", a, ok)
	}
}

func TestListKeepsInsertionOrder(t *testing.T) {
	r := NewRegistry(logging.NopLogger{})
	urls := []string{
		"https://example.com/z.css",
		"https://example.com/a.js",
		"https://example.com/m.png",
	}
	r.Register(urls[0], model.AssetStylesheet)
	r.Register(urls[1], model.AssetScript)
	r.Register(urls[2], model.AssetImage)

	for i, a := range r.List() {
		if a.URL != urls[i] {
			t.Errorf("list[%d] = %q, want %q", i, a.URL, urls[i])
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	r := NewRegistry(logging.NopLogger{})
	r.Register("https://example.com/a.png", model.AssetImage)

	err := r.UpdateStatus("https://example.com/a.png", model.AssetScanned, 1234,
		map[string]string{"content_type": "image/png"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	a, ok := r.Get("https://example.com/a.png")
	if !ok {
		t.Fatal("asset disappeared")
	}
	if a.Status != model.AssetScanned || a.Size != 1234 {
		t.Errorf("asset = %+v", a)
	}
	if a.Metadata["content_type"] != "image/png" {
		t.Errorf("metadata = %v", a.Metadata)
	}
}

func TestUpdateStatusUnknownURL(t *testing.T) {
	r := NewRegistry(logging.NopLogger{})
	err := r.UpdateStatus("https://example.com/nope.png", model.AssetScanned, 0, nil)
	if !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestRegisterAllCountsNewOnly(t *testing.T) {
	r := NewRegistry(logging.NopLogger{})
	r.Register("https://example.com/a.png", model.AssetImage)

	added := r.RegisterAll([]string{
		"https://example.com/a.png",
		"https://example.com/b.png",
		"https://example.com/b.png",
	}, model.AssetImage)
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
}

func TestLoadReplacesContents(t *testing.T) {
	r := NewRegistry(logging.NopLogger{})
	r.Register("https://example.com/old.png", model.AssetImage)

	r.Load([]model.Asset{
		{URL: "https://example.com/x.js", Type: model.AssetScript, Status: model.AssetScanned},
		{URL: "https://example.com/x.js", Type: model.AssetImage, Status: model.AssetPending},
	})

	list := r.List()
	if len(list) != 1 {
		t.Fatalf("got %d assets after load, want 1", len(list))
	}
	if list[0].Type != model.AssetScript {
		t.Errorf("load should keep the first duplicate, got %q", list[0].Type)
	}
}

func TestClassifyURL(t *testing.T) {
	cases := []struct {
		url  string
		want model.AssetType
	}{
		{"https://example.com/a.png", model.AssetImage},
		{"https://example.com/a.JPG", model.AssetImage},
		{"https://example.com/app.js?v=2", model.AssetScript},
		{"https://example.com/site.css", model.AssetStylesheet},
		{"https://example.com/report.pdf", model.AssetPDF},
		{"https://example.com/intro.mp4", model.AssetVideo},
		{"https://example.com/theme.mp3", model.AssetAudio},
		{"https://example.com/page", model.AssetDocument},
		{"://bad", model.AssetDocument},
	}
	for _, c := range cases {
		if got := ClassifyURL(c.url); got != c.want {
			t.Errorf("ClassifyURL(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}
