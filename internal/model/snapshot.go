package model

// ScanEntry pairs a URL with its latest ScanResult, in insertion order.
type ScanEntry struct {
	URL    string     `json:"url"`
	Result ScanResult `json:"result"`
}

// Snapshot is the stable read-only view handed to export and persistence
// consumers. Slices are copies; mutating a Snapshot never touches live state.
type Snapshot struct {
	ScanResults []ScanEntry   `json:"scan_results"`
	ChatHistory []ChatMessage `json:"chat_history"`
	Assets      []Asset       `json:"assets"`
}
