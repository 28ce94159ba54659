package api

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RowRequest is the body of an encode request. When DeriveKey is set the sort
// key is computed from Name and SortKey is ignored.
type RowRequest struct {
	SortKey   int64  `json:"sort_key"`
	Name      string `json:"name"`
	Offset    int64  `json:"offset"`
	DeriveKey bool   `json:"derive_key,omitempty"`
}

// EncodeResponse carries an encoded row
type EncodeResponse struct {
	Hex  string `json:"hex"`
	Size int    `json:"size"`
}

// DecodeRequest is the body of a decode request
type DecodeRequest struct {
	Hex string `json:"hex"`
}

// RowResponse is a decoded row. The integer fields are sent as decimal strings
// so clients that parse JSON numbers as doubles keep all 64 bits.
type RowResponse struct {
	SortKey int64  `json:"sort_key,string"`
	Name    string `json:"name"`
	Offset  int64  `json:"offset,string"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind string
	Port int
}
