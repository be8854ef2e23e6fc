package updater

// Event names published by the coordinator.
const (
	EvRegistered          = "registered"
	EvFreshInstall        = "fresh_install"
	EvControlled          = "controlled"
	EvCandidateInstalling = "candidate_installing"
	EvUpdateAvailable     = "update_available"
	EvActivationSent      = "activation_sent"
	EvUpdateSkipped       = "update_skipped"
	EvControllerChange    = "controller_change"
	EvReload              = "reload"
	EvSubscriberPanic     = "subscriber_panic"
)

// Event represents a coordinator lifecycle event.
// Minimal and stable: name + worker ID and optional fields via key/values.
type Event struct {
	Name     string
	WorkerID string
	Fields   map[string]any
}

// EventPublisher receives events from the coordinator. Implementations should
// be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MultiPublisher forwards each event to every publisher in order.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(e)
		}
	}
}
