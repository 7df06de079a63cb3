package guidance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/litbeFred/langres-guidance-service/internal/events"
	"github.com/litbeFred/langres-guidance-service/internal/metrics"
	"github.com/litbeFred/langres-guidance-service/internal/models"
	"github.com/litbeFred/langres-guidance-service/internal/narrator"
	"github.com/litbeFred/langres-guidance-service/internal/player"
	"github.com/litbeFred/langres-guidance-service/internal/routing"
	"golang.org/x/time/rate"
)

const (
	// lookAheadWindow bounds how many coordinates past the nearest one the
	// reconnection search inspects.
	lookAheadWindow = 10
	// lookAheadToleranceMeters is how much farther than the nearest point a
	// look-ahead candidate may be and still win, to keep the visitor moving
	// forward instead of backtracking.
	lookAheadToleranceMeters = 50.0
)

// DeviationCheck is the outcome of a single CheckDeviation call.
type DeviationCheck struct {
	Checked         bool    // False when the rate limiter suppressed the check.
	Deviated        bool    // True when the minimum distance exceeds the threshold.
	DistanceMeters  float64 // Minimum great-circle distance to the route geometry.
	ThresholdMeters float64 // The threshold the distance was compared against.
}

// CorrectionPlan is the computed route back to the main route.
type CorrectionPlan struct {
	Route                   *models.Route
	Reconnection            *models.ReconnectionPoint
	DeviationDistanceMeters float64
	EstimatedDuration       time.Duration
}

// RecoveryResult describes a confirmed return to the main route.
type RecoveryResult struct {
	DeviationDuration time.Duration
	Reconnection      *models.ReconnectionPoint
}

// CorrectionStatus is the externally visible state of the corrector.
type CorrectionStatus struct {
	Active         bool
	StartedAt      time.Time
	DeviationPoint models.Coordinates
	Reconnection   *models.ReconnectionPoint
}

// DeviationCorrector detects departure from a route and drives recovery: it
// measures the visitor's distance to the active route, picks a reconnection
// point, requests a correction route from the routing provider, and runs the
// back-on-track navigation session until the visitor is within the threshold
// again.
type DeviationCorrector struct {
	log          *slog.Logger
	provider     routing.Provider
	providerName string
	player       player.Player
	narrator     narrator.Narrator
	settings     *models.Settings
	metrics      *metrics.Metrics
	notifier     *events.Notifier
	limiter      *rate.Limiter

	// onArrival is invoked (outside the corrector lock) when the player
	// reports arrival at the reconnection point. The coordinator installs
	// its recovery transition here.
	onArrival func(ctx context.Context, pos models.Coordinates)

	mu             sync.Mutex
	active         bool
	episodeActive  bool
	navSession     uint64
	deviationStart time.Time
	deviationPoint models.Coordinates
	reconnection   *models.ReconnectionPoint
	playerSubID    string
	history        []models.DeviationRecord
}

// NewDeviationCorrector creates a corrector around the given collaborators.
// Real deviation checks are spaced at least settings.CheckInterval apart.
func NewDeviationCorrector(
	log *slog.Logger,
	provider routing.Provider,
	providerName string,
	navPlayer player.Player,
	speaker narrator.Narrator,
	settings *models.Settings,
	appMetrics *metrics.Metrics,
) *DeviationCorrector {
	return &DeviationCorrector{
		log:          log,
		provider:     provider,
		providerName: providerName,
		player:       navPlayer,
		narrator:     speaker,
		settings:     settings,
		metrics:      appMetrics,
		notifier:     events.NewNotifier(log),
		limiter:      rate.NewLimiter(rate.Every(settings.CheckInterval), 1),
	}
}

// SetArrivalHandler installs the callback invoked when the navigation player
// reports arrival at the reconnection point.
func (dc *DeviationCorrector) SetArrivalHandler(handler func(ctx context.Context, pos models.Coordinates)) {
	dc.onArrival = handler
}

// ResetEpisode clears any open deviation episode and rebuilds the check
// rate limiter from the current settings. The coordinator calls it when a
// guidance session starts, so episode state never leaks across sessions and
// a changed CheckInterval takes effect.
func (dc *DeviationCorrector) ResetEpisode() {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.episodeActive = false
	dc.limiter = rate.NewLimiter(rate.Every(dc.settings.CheckInterval), 1)
}

// CheckDeviation measures the minimum great-circle distance from the
// position to the main route's geometry and compares it to the deviation
// threshold. Calls inside the rate-limit window return Checked=false without
// touching any state. A crossing of the threshold emits DEVIATION_DETECTED
// once per deviation episode.
func (dc *DeviationCorrector) CheckDeviation(
	ctx context.Context,
	pos models.Coordinates,
	mainRoute *models.Route,
) DeviationCheck {
	if mainRoute == nil || len(mainRoute.Geometry) == 0 {
		return DeviationCheck{}
	}

	dc.mu.Lock()
	limiter := dc.limiter
	dc.mu.Unlock()

	if !limiter.Allow() {
		return DeviationCheck{}
	}

	distance := dc.minDistanceToRoute(pos, mainRoute)
	threshold := dc.settings.DeviationThresholdMeters
	deviated := distance > threshold

	check := DeviationCheck{
		Checked:         true,
		Deviated:        deviated,
		DistanceMeters:  distance,
		ThresholdMeters: threshold,
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if !deviated {
		dc.metrics.DeviationChecks.WithLabelValues("on_route").Inc()
		dc.episodeActive = false
		return check
	}

	dc.metrics.DeviationChecks.WithLabelValues("deviated").Inc()
	dc.log.DebugContext(ctx, "Deviation check", "distance_m", distance, "threshold_m", threshold)

	if !dc.episodeActive && !dc.active {
		dc.episodeActive = true
		dc.notifier.Notify(events.Event{
			Type: events.DeviationDetected,
			Payload: map[string]any{
				"position":          pos,
				"deviationDistance": distance,
				"threshold":         threshold,
			},
		})
	}

	return check
}

// FindBestReconnectionPoint returns the coordinate of the main route to
// steer the visitor back to. It starts from the nearest coordinate, then
// scans a bounded look-ahead window for a point further along the route that
// is not much farther away; such a point wins and is tagged strategic, so
// the visitor is not sent backward over ground already covered. Returns nil
// when the route has no geometry.
func (dc *DeviationCorrector) FindBestReconnectionPoint(
	pos models.Coordinates,
	mainRoute *models.Route,
) *models.ReconnectionPoint {
	if mainRoute == nil || len(mainRoute.Geometry) == 0 {
		return nil
	}

	nearestIdx := 0
	nearestDist := dc.provider.Distance(
		pos.Latitude, pos.Longitude,
		mainRoute.Geometry[0].Latitude, mainRoute.Geometry[0].Longitude,
	)
	for i := 1; i < len(mainRoute.Geometry); i++ {
		dist := dc.provider.Distance(
			pos.Latitude, pos.Longitude,
			mainRoute.Geometry[i].Latitude, mainRoute.Geometry[i].Longitude,
		)
		if dist < nearestDist {
			nearestDist = dist
			nearestIdx = i
		}
	}

	best := &models.ReconnectionPoint{
		Position:       mainRoute.Geometry[nearestIdx],
		Index:          nearestIdx,
		DistanceMeters: nearestDist,
	}

	limit := min(nearestIdx+lookAheadWindow, len(mainRoute.Geometry)-1)
	for i := nearestIdx + 1; i <= limit; i++ {
		dist := dc.provider.Distance(
			pos.Latitude, pos.Longitude,
			mainRoute.Geometry[i].Latitude, mainRoute.Geometry[i].Longitude,
		)
		if dist <= nearestDist+lookAheadToleranceMeters {
			best = &models.ReconnectionPoint{
				Position:       mainRoute.Geometry[i],
				Index:          i,
				DistanceMeters: dist,
				Strategic:      true,
			}
		}
	}

	return best
}

// CalculateBackOnTrackRoute computes a correction route from the position to
// the best reconnection point on the main route.
func (dc *DeviationCorrector) CalculateBackOnTrackRoute(
	ctx context.Context,
	pos models.Coordinates,
	mainRoute *models.Route,
) (*CorrectionPlan, error) {
	if mainRoute == nil || len(mainRoute.Geometry) == 0 {
		return nil, fmt.Errorf("%w: main route has no geometry", ErrRouteComputation)
	}

	reconnection := dc.FindBestReconnectionPoint(pos, mainRoute)
	if reconnection == nil {
		return nil, ErrNoReconnectionPoint
	}

	startTime := time.Now()
	route, err := dc.provider.CalculateRoute(ctx, pos, reconnection.Position)
	dc.metrics.RouteSeconds.WithLabelValues(dc.providerName).Observe(time.Since(startTime).Seconds())
	if err != nil {
		dc.metrics.ProviderAPIError.Inc()
		return nil, fmt.Errorf("%w: %w", ErrRouteComputation, err)
	}
	if route == nil || len(route.Geometry) == 0 {
		return nil, fmt.Errorf("%w: provider returned correction route without geometry", ErrRouteComputation)
	}

	deviationDistance := dc.minDistanceToRoute(pos, mainRoute)

	return &CorrectionPlan{
		Route:                   route,
		Reconnection:            reconnection,
		DeviationDistanceMeters: deviationDistance,
		EstimatedDuration:       route.Duration,
	}, nil
}

// StartBackOnTrack computes the correction route and starts the back-on-track
// navigation session toward the reconnection point. Any failure along the
// chain leaves the correction inactive and emits GUIDANCE_ERROR.
func (dc *DeviationCorrector) StartBackOnTrack(
	ctx context.Context,
	pos models.Coordinates,
	mainRoute *models.Route,
) error {
	plan, err := dc.CalculateBackOnTrackRoute(ctx, pos, mainRoute)
	if err != nil {
		dc.failStart(ctx, "failed to compute back-on-track route", err)
		return err
	}

	dc.mu.Lock()
	dc.navSession++
	sessionID := dc.navSession
	dc.mu.Unlock()

	subID := dc.player.Subscribe(func(event events.Event) {
		dc.handlePlayerEvent(sessionID, event)
	})

	if err = dc.player.StartNavigation(ctx, plan.Route); err != nil {
		dc.player.Unsubscribe(subID)
		err = fmt.Errorf("%w: %w", ErrNavigationStart, err)
		dc.failStart(ctx, "failed to start back-on-track navigation", err)
		return err
	}

	dc.mu.Lock()
	dc.active = true
	dc.deviationStart = time.Now()
	dc.deviationPoint = pos
	dc.reconnection = plan.Reconnection
	dc.playerSubID = subID
	dc.history = append(dc.history, models.DeviationRecord{
		StartedAt:                dc.deviationStart,
		Position:                 pos,
		CorrectionDistanceMeters: plan.DeviationDistanceMeters,
	})
	dc.mu.Unlock()

	dc.metrics.Corrections.WithLabelValues("started").Inc()
	dc.log.InfoContext(ctx, "Back-on-track navigation started",
		"deviation_m", plan.DeviationDistanceMeters,
		"reconnection_index", plan.Reconnection.Index,
		"strategic", plan.Reconnection.Strategic)

	dc.speak(ctx, "You have left the planned route. Follow the new directions to get back on track.")

	dc.notifier.Notify(events.Event{
		Type: events.BackOnTrackStarted,
		Payload: map[string]any{
			"deviationPoint":     pos,
			"reconnectionPoint":  *plan.Reconnection,
			"correctionDistance": plan.DeviationDistanceMeters,
			"estimatedTime":      plan.EstimatedDuration,
		},
	})

	return nil
}

// IsBackOnMainRoute reports whether the position is within the deviation
// threshold of the main route.
func (dc *DeviationCorrector) IsBackOnMainRoute(pos models.Coordinates, mainRoute *models.Route) bool {
	if mainRoute == nil || len(mainRoute.Geometry) == 0 {
		return false
	}

	return dc.minDistanceToRoute(pos, mainRoute) <= dc.settings.DeviationThresholdMeters
}

// ConfirmRecovery checks whether the position confirms a return to the main
// route and, if so, closes the correction session: the player is stopped,
// the open deviation record is closed out as successful, the recovery is
// announced, and BACK_ON_TRACK_COMPLETED is emitted. The caller owns the
// surrounding mode transition.
func (dc *DeviationCorrector) ConfirmRecovery(
	ctx context.Context,
	pos models.Coordinates,
	mainRoute *models.Route,
) (*RecoveryResult, bool) {
	dc.mu.Lock()
	if !dc.active {
		dc.mu.Unlock()
		return nil, false
	}
	dc.mu.Unlock()

	if !dc.IsBackOnMainRoute(pos, mainRoute) {
		return nil, false
	}

	dc.player.StopNavigation()

	dc.mu.Lock()
	dc.player.Unsubscribe(dc.playerSubID)
	duration := time.Since(dc.deviationStart)
	reconnection := dc.reconnection
	dc.closeHistoryLocked(true)
	dc.clearLocked()
	dc.mu.Unlock()

	dc.metrics.Corrections.WithLabelValues("recovered").Inc()
	dc.log.InfoContext(ctx, "Returned to main route", "deviation_duration", duration)

	dc.speak(ctx, "Well done, you are back on the planned route.")

	dc.notifier.Notify(events.Event{
		Type: events.BackOnTrackCompleted,
		Payload: map[string]any{
			"reason":     "recovered",
			"successful": true,
		},
	})

	return &RecoveryResult{DeviationDuration: duration, Reconnection: reconnection}, true
}

// StopBackOnTrack cancels the correction session. It is idempotent: a second
// call is a no-op and emits nothing.
func (dc *DeviationCorrector) StopBackOnTrack(ctx context.Context) {
	dc.mu.Lock()
	if !dc.active {
		dc.mu.Unlock()
		return
	}

	dc.player.Unsubscribe(dc.playerSubID)
	dc.closeHistoryLocked(false)
	dc.clearLocked()
	dc.mu.Unlock()

	dc.player.StopNavigation()

	dc.metrics.Corrections.WithLabelValues("stopped").Inc()
	dc.log.InfoContext(ctx, "Back-on-track navigation stopped")

	dc.notifier.Notify(events.Event{
		Type: events.BackOnTrackCompleted,
		Payload: map[string]any{
			"reason":     "stopped",
			"successful": false,
		},
	})
}

// Active reports whether a correction session is running.
func (dc *DeviationCorrector) Active() bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	return dc.active
}

// Status returns a snapshot of the correction session.
func (dc *DeviationCorrector) Status() *CorrectionStatus {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	return &CorrectionStatus{
		Active:         dc.active,
		StartedAt:      dc.deviationStart,
		DeviationPoint: dc.deviationPoint,
		Reconnection:   dc.reconnection,
	}
}

// History returns a copy of the deviation records accumulated in this
// process.
func (dc *DeviationCorrector) History() []models.DeviationRecord {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	history := make([]models.DeviationRecord, len(dc.history))
	copy(history, dc.history)

	return history
}

// Subscribe registers a listener for correction events.
func (dc *DeviationCorrector) Subscribe(listener events.Listener) string {
	return dc.notifier.Subscribe(listener)
}

// Unsubscribe removes a previously registered listener.
func (dc *DeviationCorrector) Unsubscribe(id string) {
	dc.notifier.Unsubscribe(id)
}

// handlePlayerEvent reacts to the navigation player: an arrival at the end
// of the correction route hands the reconnection position to the installed
// arrival handler. The session id pins each subscription to the navigation
// session it was created for, so an arrival still in flight from a previous
// session cannot confirm the current one.
func (dc *DeviationCorrector) handlePlayerEvent(sessionID uint64, event events.Event) {
	if event.Type != player.NavigationStopped {
		return
	}
	if reason, _ := event.Payload[player.PayloadReason].(string); reason != player.ReasonArrived {
		return
	}

	dc.mu.Lock()
	active := dc.active && sessionID == dc.navSession
	var pos models.Coordinates
	if dc.reconnection != nil {
		pos = dc.reconnection.Position
	}
	handler := dc.onArrival
	dc.mu.Unlock()

	if active && handler != nil {
		handler(context.Background(), pos)
	}
}

// minDistanceToRoute linear-scans the route geometry for the minimum
// great-circle distance to pos. Checks are rate-limited and routes are
// bounded in size, so the scan cost is acceptable.
func (dc *DeviationCorrector) minDistanceToRoute(pos models.Coordinates, route *models.Route) float64 {
	minDist := dc.provider.Distance(
		pos.Latitude, pos.Longitude,
		route.Geometry[0].Latitude, route.Geometry[0].Longitude,
	)
	for i := 1; i < len(route.Geometry); i++ {
		dist := dc.provider.Distance(
			pos.Latitude, pos.Longitude,
			route.Geometry[i].Latitude, route.Geometry[i].Longitude,
		)
		if dist < minDist {
			minDist = dist
		}
	}

	return minDist
}

// closeHistoryLocked closes out the most recent deviation record. Callers
// hold dc.mu.
func (dc *DeviationCorrector) closeHistoryLocked(successful bool) {
	if len(dc.history) == 0 {
		return
	}

	last := &dc.history[len(dc.history)-1]
	if !last.CompletedAt.IsZero() {
		return
	}

	last.CompletedAt = time.Now()
	last.Duration = last.CompletedAt.Sub(last.StartedAt)
	last.Successful = successful
}

// clearLocked resets all correction-session fields. Callers hold dc.mu.
func (dc *DeviationCorrector) clearLocked() {
	dc.active = false
	dc.episodeActive = false
	dc.deviationStart = time.Time{}
	dc.deviationPoint = models.Coordinates{}
	dc.reconnection = nil
	dc.playerSubID = ""
}

func (dc *DeviationCorrector) failStart(ctx context.Context, message string, err error) {
	dc.log.ErrorContext(ctx, message, "error", err)
	dc.notifier.Notify(events.Event{
		Type: events.GuidanceError,
		Payload: map[string]any{
			"message": message,
			"error":   err.Error(),
		},
	})
}

func (dc *DeviationCorrector) speak(ctx context.Context, text string) {
	if !dc.settings.AudioEnabled {
		return
	}

	dc.metrics.Narrations.Inc()
	dc.narrator.Speak(ctx, text, dc.settings.Language)
}
