package types

// WorkerStatus summarizes one worker slot of the registration.
type WorkerStatus struct {
	ID    string `json:"id"`
	State string `json:"state"`
}
