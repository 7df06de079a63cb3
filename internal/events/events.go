// Package events defines the guidance event taxonomy and a small
// subscription registry used by every guidance component to broadcast
// state changes to interested listeners.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type identifies a guidance event.
type Type string

const (
	// GuidanceStarted fires when a guidance session becomes active.
	GuidanceStarted Type = "GUIDANCE_STARTED"
	// GuidanceStopped fires when the active guidance session is torn down.
	GuidanceStopped Type = "GUIDANCE_STOPPED"
	// GuidanceError fires when a start or transition fails recoverably.
	GuidanceError Type = "GUIDANCE_ERROR"
	// PositionUpdated fires for every position processed while guidance is active.
	PositionUpdated Type = "POSITION_UPDATED"
	// DeviationDetected fires once per deviation episode.
	DeviationDetected Type = "DEVIATION_DETECTED"
	// BackOnTrackStarted fires when a correction route begins.
	BackOnTrackStarted Type = "BACK_ON_TRACK_STARTED"
	// BackOnTrackCompleted fires when the correction session is cleared.
	BackOnTrackCompleted Type = "BACK_ON_TRACK_COMPLETED"
	// ReturnedToMainRoute fires when the visitor is back within the threshold.
	ReturnedToMainRoute Type = "RETURNED_TO_MAIN_ROUTE"
	// POIReached fires when the visitor enters a POI proximity radius.
	POIReached Type = "POI_REACHED"
	// TourCompleted fires when the last POI of a tour has been reached.
	TourCompleted Type = "TOUR_COMPLETED"
)

// Event is a single guidance notification with a typed name and payload.
type Event struct {
	Type    Type
	Time    time.Time
	Payload map[string]any
}

// Listener receives broadcast events. Listeners must not assume they run
// on any particular goroutine.
type Listener func(Event)

// Notifier is a per-component subscription registry. A panicking listener
// is isolated and logged so it cannot block delivery to the others.
type Notifier struct {
	log       *slog.Logger
	mu        sync.Mutex
	listeners map[string]Listener
}

// NewNotifier creates an empty listener registry.
func NewNotifier(log *slog.Logger) *Notifier {
	return &Notifier{
		log:       log,
		listeners: make(map[string]Listener),
	}
}

// Subscribe registers a listener and returns the identifier needed to
// unsubscribe it later.
func (n *Notifier) Subscribe(listener Listener) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.NewString()
	n.listeners[id] = listener

	return id
}

// Unsubscribe removes a previously registered listener. Unknown identifiers
// are ignored.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.listeners, id)
}

// Notify delivers the event to every registered listener. Delivery order is
// unspecified; a panic in one listener is recovered and logged without
// affecting the rest.
func (n *Notifier) Notify(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	n.mu.Lock()
	listeners := make([]Listener, 0, len(n.listeners))
	for _, listener := range n.listeners {
		listeners = append(listeners, listener)
	}
	n.mu.Unlock()

	for _, listener := range listeners {
		n.deliver(listener, event)
	}
}

// Len returns the number of registered listeners.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.listeners)
}

func (n *Notifier) deliver(listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("Guidance listener panicked", "event", string(event.Type), "panic", r)
		}
	}()

	listener(event)
}
