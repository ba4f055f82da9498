package model

// AppError is the common diagnostic payload carried by every error in this
// tool. Per-item failures are logged and skipped, never raised past the item
// boundary, so the payload is shaped for human-readable stderr lines.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage"`

	Snippet string `json:"snippet,omitempty"` // offending profile/outbound, compacted; <= 200 chars
	Hint    string `json:"hint,omitempty"`
}
