package player

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/litbeFred/langres-guidance-service/internal/events"
	"github.com/litbeFred/langres-guidance-service/internal/models"
)

// ErrEmptyRoutePlan is returned when a navigation session is started with a
// route that has no geometry to walk.
var ErrEmptyRoutePlan = errors.New("route plan has no geometry")

// Simulator is a navigation player that replays a route plan's geometry on a
// fixed interval, emitting a position update per coordinate and a stop event
// once the last coordinate is reached. It backs demos and tests where no
// real positioning source exists.
type Simulator struct {
	log      *slog.Logger
	interval time.Duration
	notifier *events.Notifier

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSimulator creates a simulated player that advances one route coordinate
// per interval.
func NewSimulator(log *slog.Logger, interval time.Duration) *Simulator {
	return &Simulator{
		log:      log,
		interval: interval,
		notifier: events.NewNotifier(log),
	}
}

// StartNavigation begins replaying the route plan. A navigation session
// already in progress is stopped first.
func (s *Simulator) StartNavigation(ctx context.Context, route *models.Route) error {
	if route == nil || len(route.Geometry) == 0 {
		return ErrEmptyRoutePlan
	}

	s.StopNavigation()

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.log.DebugContext(ctx, "Simulated navigation started", "points", len(route.Geometry))
	go s.run(runCtx, route.Geometry)

	return nil
}

// StopNavigation cancels the active navigation session, if any. It is safe
// to call when nothing is running.
func (s *Simulator) StopNavigation() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Subscribe registers a listener for player events.
func (s *Simulator) Subscribe(listener events.Listener) string {
	return s.notifier.Subscribe(listener)
}

// Unsubscribe removes a previously registered listener.
func (s *Simulator) Unsubscribe(id string) {
	s.notifier.Unsubscribe(id)
}

func (s *Simulator) run(ctx context.Context, geometry []models.Coordinates) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for _, point := range geometry {
		select {
		case <-ctx.Done():
			s.notifier.Notify(events.Event{
				Type:    NavigationStopped,
				Payload: map[string]any{PayloadReason: ReasonStopped},
			})
			return
		case <-ticker.C:
			s.notifier.Notify(events.Event{
				Type:    PositionUpdate,
				Payload: map[string]any{PayloadPosition: point},
			})
		}
	}

	s.log.DebugContext(ctx, "Simulated navigation arrived")
	s.notifier.Notify(events.Event{
		Type:    NavigationStopped,
		Payload: map[string]any{PayloadReason: ReasonArrived},
	})
}
