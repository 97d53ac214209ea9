package httpapi

import "time"

// classifyRequest is the body of POST /v1/classify. Text is a pointer so
// a JSON null or a missing field is distinguishable from an empty string,
// which is a legitimate input.
type classifyRequest struct {
	Text    *string `json:"text"`
	Profile string  `json:"profile,omitempty"`
}

type classifyResponse struct {
	RequestID   string  `json:"request_id"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
	Profile     string  `json:"profile"`
	Threshold   float64 `json:"threshold"`
	CacheHit    bool    `json:"cache_hit"`
}

// batchRequest is the body of POST /v1/classify/batch. Individual nulls
// are tolerated and fail only their own slot.
type batchRequest struct {
	Texts   []*string `json:"texts"`
	Profile string    `json:"profile,omitempty"`
}

type batchItem struct {
	Label       string   `json:"label,omitempty"`
	Probability *float64 `json:"probability,omitempty"`
	CacheHit    bool     `json:"cache_hit,omitempty"`
	Error       string   `json:"error,omitempty"`
	ErrorKind   string   `json:"error_kind,omitempty"`
}

type batchResponse struct {
	RequestID string      `json:"request_id"`
	Profile   string      `json:"profile"`
	Threshold float64     `json:"threshold"`
	Size      int         `json:"size"`
	Items     []batchItem `json:"items"`
}

type profilesResponse struct {
	RequestID      string        `json:"request_id"`
	DefaultProfile string        `json:"default_profile"`
	Profiles       []profileInfo `json:"profiles"`
}

type profileInfo struct {
	Name        string  `json:"name"`
	Threshold   float64 `json:"threshold"`
	Description string  `json:"description"`
}

type healthResponse struct {
	Status         string    `json:"status"`
	DefaultProfile string    `json:"default_profile"`
	Model          modelInfo `json:"model"`
	Uptime         string    `json:"uptime"`
}

type modelInfo struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	SHA256    string    `json:"sha256"`
	ModTime   time.Time `json:"mtime"`
	LoadedAt  time.Time `json:"loaded_at"`
}

type errorResponse struct {
	RequestID string      `json:"request_id"`
	Error     errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
