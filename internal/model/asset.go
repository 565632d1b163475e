package model

// AssetType classifies a discovered sub-resource.
type AssetType string

const (
	AssetImage      AssetType = "image"
	AssetScript     AssetType = "script"
	AssetStylesheet AssetType = "stylesheet"
	AssetPDF        AssetType = "pdf"
	AssetVideo      AssetType = "video"
	AssetAudio      AssetType = "audio"
	AssetDocument   AssetType = "document"
)

// AssetStatus is the lifecycle state of an Asset.
type AssetStatus string

const (
	AssetPending AssetStatus = "pending"
	AssetScanned AssetStatus = "scanned"
	AssetFailed  AssetStatus = "failed"
)

// Asset is a sub-resource referenced by a scanned page. Its identity is the
// absolute URL; a registry holds at most one Asset per URL.
type Asset struct {
	URL    string      `json:"url"`
	Type   AssetType   `json:"type"`
	Status AssetStatus `json:"status"`

	// Size in bytes, when a follow-up probe discovered it.
	Size int64 `json:"size,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}
