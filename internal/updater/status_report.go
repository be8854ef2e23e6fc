package updater

import (
	"swupdate/pkg/types"
)

// Snapshot is a read-only projection of the coordinator state.
type Snapshot struct {
	Phase           Phase
	UpdateAvailable bool
	Reloaded        bool
	Registered      bool
	Detections      int
}

// Snapshot returns a read-only view of the coordinator state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Phase:           c.phase,
		UpdateAvailable: c.updateAvailable,
		Reloaded:        c.reloadGuard,
		Registered:      c.reg != nil,
		Detections:      c.detections,
	}
}

// Ready reports whether the registration has been handled.
func (c *Coordinator) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reg != nil
}

// scriptURLer is implemented by registrations that know their script.
type scriptURLer interface {
	ScriptURL() string
}

// Status builds a detailed status response for /status.
func (c *Coordinator) Status() types.StatusResponse {
	s := c.Snapshot()
	now := c.now()
	resp := types.StatusResponse{
		Phase:           string(s.Phase),
		UpdateAvailable: s.UpdateAvailable,
		Reloaded:        s.Reloaded,
		Detections:      s.Detections,
		Controller:      workerStatus(c.container.Controller()),
		UptimeSeconds:   int64(now.Sub(c.started).Seconds()),
		ServerTimeUnix:  now.Unix(),
	}
	if reg := c.registration(); reg != nil {
		resp.Active = workerStatus(reg.Active())
		resp.Installing = workerStatus(reg.Installing())
		resp.Waiting = workerStatus(reg.Waiting())
		if su, ok := reg.(scriptURLer); ok {
			resp.ScriptURL = su.ScriptURL()
		}
	}
	return resp
}

func workerStatus(w Worker) *types.WorkerStatus {
	if w == nil {
		return nil
	}
	return &types.WorkerStatus{ID: w.ID(), State: string(w.State())}
}
