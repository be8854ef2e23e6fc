package updater

import "sync"

// watchForCandidate calls cb when a new worker is ready to take over:
// immediately if one is already waiting (another tab may have advanced it),
// otherwise once the installing worker, current or future, reaches
// installed. Workers that end up redundant never trigger cb.
func (c *Coordinator) watchForCandidate(cb func(Worker)) {
	reg := c.registration()
	if w := reg.Waiting(); w != nil {
		c.log.Debug().Str("worker_id", w.ID()).Msg("worker already waiting")
		cb(w)
		return
	}
	if w := reg.Installing(); w != nil {
		c.pub.Publish(Event{Name: EvCandidateInstalling, WorkerID: w.ID()})
		c.listenInstalled(w, cb)
		return
	}
	c.track(reg.OnUpdateFound(func() {
		w := reg.Installing()
		if w == nil {
			return
		}
		c.log.Debug().Str("worker_id", w.ID()).Msg("update found")
		c.pub.Publish(Event{Name: EvCandidateInstalling, WorkerID: w.ID()})
		c.listenInstalled(w, cb)
	}))
}

// installWatch fires once when its worker reports installed, then detaches.
type installWatch struct {
	once sync.Once
	mu   sync.Mutex
	sub  Subscription
	done bool
}

func (iw *installWatch) detach() {
	iw.mu.Lock()
	iw.done = true
	sub := iw.sub
	iw.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

func (c *Coordinator) listenInstalled(w Worker, cb func(Worker)) {
	iw := &installWatch{}
	fire := func() {
		iw.once.Do(func() {
			iw.detach()
			cb(w)
		})
	}
	sub := w.OnStateChange(func(s WorkerState) {
		if s == WorkerInstalled {
			fire()
		}
	})
	iw.mu.Lock()
	iw.sub = sub
	done := iw.done
	iw.mu.Unlock()
	if done {
		// fired before OnStateChange returned
		if sub != nil {
			sub.Unsubscribe()
		}
		return
	}
	c.track(sub)

	// The install may have completed between reading the slot and attaching.
	if w.State() == WorkerInstalled || c.isWaiting(w) {
		c.log.Debug().Str("worker_id", w.ID()).Msg("worker installed before watch attached")
		fire()
	}
}

func (c *Coordinator) isWaiting(w Worker) bool {
	reg := c.registration()
	if reg == nil {
		return false
	}
	waiting := reg.Waiting()
	return waiting != nil && waiting.ID() == w.ID()
}
