package types

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Coordinator phase (awaiting_registration, fresh_install, controlled, update_detected, activating, reloaded).
	// example: update_detected
	Phase string `json:"phase" example:"update_detected"`
	// True once a candidate reached the installed state while the page was controlled.
	// example: true
	UpdateAvailable bool `json:"update_available" example:"true"`
	// True once control transfer was observed and the reload action ran.
	// example: false
	Reloaded bool `json:"reloaded" example:"false"`
	// Number of installed candidates detected so far.
	// example: 1
	Detections int `json:"detections" example:"1"`
	// Worker script the registration is bound to.
	// example: /sw.js
	ScriptURL string `json:"script_url,omitempty" example:"/sw.js"`
	// Current controller of the page, if any.
	Controller *WorkerStatus `json:"controller,omitempty"`
	// Registration slots.
	Active     *WorkerStatus `json:"active,omitempty"`
	Installing *WorkerStatus `json:"installing,omitempty"`
	Waiting    *WorkerStatus `json:"waiting,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// UpdateResponse is returned by POST /update.
type UpdateResponse struct {
	// True when an activation directive was posted to the waiting worker.
	// example: true
	Sent bool `json:"sent" example:"true"`
	// Phase after the call.
	// example: activating
	Phase string `json:"phase" example:"activating"`
}

// CheckResponse is returned by POST /check.
type CheckResponse struct {
	// True when the script changed and a new candidate started installing.
	// example: true
	Installed bool `json:"installed" example:"true"`
	// Candidate worker id when Installed is true.
	WorkerID string `json:"worker_id,omitempty"`
	// Digest of the script that was checked.
	Digest string `json:"digest"`
}

// EventsResponse wraps GET /events.
type EventsResponse struct {
	Events []EventRecord `json:"events"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
