package handler

import (
	"encoding/json"
	"net/http"
)

// maxJSONBodySize caps JSON request bodies to prevent memory exhaustion.
// Large enough for the 10k-character free text cap with headroom for
// multi-byte characters and JSON escaping.
const maxJSONBodySize = 1 << 20 // 1 MB

// decodeJSON decodes a JSON request body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	return dec.Decode(dst)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
