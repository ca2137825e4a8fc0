package internal

import "time"

// ProfileRecord is a profile document as stored in the registry.
type ProfileRecord struct {
	Kind      string         `json:"kind"`
	ID        string         `json:"id"`
	Revision  string         `json:"revision"`
	Hash      string         `json:"hash"`
	Document  map[string]any `json:"document"`
	UpdatedAt time.Time      `json:"updated_at"`
}
