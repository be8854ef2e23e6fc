package types

// Script is a worker script discovered on disk.
type Script struct {
	// Stable identifier for the script (file name).
	// example: sw.js
	ID string `json:"id" example:"sw.js"`
	// Absolute path to the script on disk.
	// example: /srv/app/public/sw.js
	Path string `json:"path" example:"/srv/app/public/sw.js"`
	// Hex sha256 of the script bytes. A changed digest is what makes an update check find a new candidate.
	// example: 9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08
	Digest string `json:"digest" example:"9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"`
	// Size in bytes.
	// example: 2048
	Size int64 `json:"size" example:"2048"`
}

// EventRecord is one journaled coordinator event.
type EventRecord struct {
	// Unique record id.
	ID string `json:"id"`
	// Event name (e.g., update_available, reload).
	// example: update_available
	Name string `json:"name" example:"update_available"`
	// Worker the event refers to, if any.
	WorkerID string `json:"worker_id,omitempty"`
	// Extra key/values attached by the publisher.
	Fields map[string]any `json:"fields,omitempty"`
	// Event time in unix milliseconds.
	// example: 1700000000000
	AtUnixMilli int64 `json:"at_unix_ms" example:"1700000000000"`
}
