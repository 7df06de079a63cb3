// Package player defines the turn-by-turn navigation player consumed by the
// guidance core, plus a simulated implementation that walks a route plan
// without real positioning hardware.
package player

import (
	"context"

	"github.com/litbeFred/langres-guidance-service/internal/events"
	"github.com/litbeFred/langres-guidance-service/internal/models"
)

// Event types emitted by navigation players.
const (
	// PositionUpdate carries the player's current position along the plan.
	PositionUpdate events.Type = "PLAYER_POSITION_UPDATE"
	// NavigationStopped fires when a navigation session ends, with a
	// "reason" payload of either "arrived" or "stopped".
	NavigationStopped events.Type = "PLAYER_NAVIGATION_STOPPED"
)

// Payload keys used by player events.
const (
	PayloadPosition = "position"
	PayloadReason   = "reason"
)

// Stop reasons reported in NavigationStopped events.
const (
	ReasonArrived = "arrived"
	ReasonStopped = "stopped"
)

// Player drives turn-by-turn navigation for a route plan and reports
// progress through subscribed listeners.
type Player interface {
	StartNavigation(ctx context.Context, route *models.Route) error
	StopNavigation()
	Subscribe(listener events.Listener) string
	Unsubscribe(id string)
}
