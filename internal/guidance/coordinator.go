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
)

// Config selects the guidance mode to start and carries its inputs.
type Config struct {
	Type        models.GuidanceType // Which guidance mode to start.
	POIs        []models.POI        // Tour stops (guided tour mode).
	Options     TourOptions         // Tour tuning (guided tour mode).
	Route       *models.Route       // Main route to reconnect to (back-on-track mode).
	Position    *models.Coordinates // Current visitor position (back-on-track and free modes).
	Destination *models.Coordinates // Target point (free navigation mode).
}

// PositionStatus is the result of a single UpdatePosition call.
type PositionStatus struct {
	Active       bool
	GuidanceType models.GuidanceType
	Deviation    *DeviationCheck      // Set when a real deviation check ran.
	Tour         *models.TourProgress // Set in guided tour mode.
	Correction   *CorrectionStatus    // Set in back-on-track mode.
}

// SessionStatus is a snapshot of the active guidance session.
type SessionStatus struct {
	Active       bool
	GuidanceType models.GuidanceType
	StartedAt    time.Time
	Elapsed      time.Duration
	Tour         *models.TourProgress
	Correction   *CorrectionStatus
}

// session is the coordinator's own state for the one active guidance mode.
type session struct {
	mode       models.GuidanceType
	startedAt  time.Time
	mainRoute  *models.Route
	generation uint64
	// pausedTour is set while a back-on-track correction interrupts a
	// guided tour, so recovery can resume it.
	pausedTour bool
}

// Coordinator is the single arbiter of which guidance mode is active. It
// routes position updates and lifecycle calls to the matching sub-service
// and performs the automatic deviation and recovery transitions between the
// guided tour and back-on-track modes. Exactly one session is active at a
// time; starting a new one tears the previous one down first.
type Coordinator struct {
	log          *slog.Logger
	settings     *models.Settings
	metrics      *metrics.Metrics
	provider     routing.Provider
	providerName string
	player       player.Player
	notifier     *events.Notifier

	tour      *TourNavigator
	corrector *DeviationCorrector

	mu         sync.Mutex
	session    *session
	generation uint64
}

// NewCoordinator wires a coordinator with its sub-services. The routing
// provider, player, and narrator are injected; the tour navigator and
// deviation corrector are owned by the coordinator.
func NewCoordinator(
	log *slog.Logger,
	provider routing.Provider,
	providerName string,
	navPlayer player.Player,
	speaker narrator.Narrator,
	settings *models.Settings,
	appMetrics *metrics.Metrics,
) *Coordinator {
	coordinator := &Coordinator{
		log:          log,
		settings:     settings,
		metrics:      appMetrics,
		provider:     provider,
		providerName: providerName,
		player:       navPlayer,
		notifier:     events.NewNotifier(log),
		tour: NewTourNavigator(
			log, provider, providerName, navPlayer, speaker, settings, appMetrics,
		),
		corrector: NewDeviationCorrector(
			log, provider, providerName, navPlayer, speaker, settings, appMetrics,
		),
	}

	// Sub-service events reach the coordinator's subscribers through one
	// registry; deviation events are enriched with the tour snapshot.
	coordinator.tour.Subscribe(coordinator.forward)
	coordinator.corrector.Subscribe(coordinator.forward)
	coordinator.corrector.SetArrivalHandler(coordinator.handleCorrectionArrival)

	return coordinator
}

// AddListener registers a listener for all guidance events and returns its
// subscription id.
func (c *Coordinator) AddListener(listener events.Listener) string {
	return c.notifier.Subscribe(listener)
}

// RemoveListener drops a previously registered listener.
func (c *Coordinator) RemoveListener(id string) {
	c.notifier.Unsubscribe(id)
}

// StartGuidance starts the guidance mode selected by the config. An already
// active mode is stopped first; teardown and setup never overlap. On failure
// the session is left at mode None and GUIDANCE_ERROR is emitted.
func (c *Coordinator) StartGuidance(ctx context.Context, cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cfg.Type {
	case models.GuidanceGuidedTour, models.GuidanceBackOnTrack, models.GuidanceFreeNavigation:
	case models.GuidanceNone:
		return c.failStart(ctx, cfg.Type, fmt.Errorf("%w: cannot start mode %q", ErrInvalidConfiguration, cfg.Type))
	default:
		return c.failStart(ctx, cfg.Type, fmt.Errorf("%w: unknown guidance type %q", ErrInvalidConfiguration, cfg.Type))
	}

	if c.session != nil {
		c.stopLocked(ctx, "restarted")
	}

	// Each session starts with a clean deviation slate and picks up the
	// current check interval.
	c.corrector.ResetEpisode()

	var (
		mainRoute *models.Route
		err       error
	)

	switch cfg.Type {
	case models.GuidanceGuidedTour:
		if err = c.tour.Start(ctx, cfg.POIs, cfg.Options); err == nil {
			mainRoute = c.tour.Route()
		}
	case models.GuidanceBackOnTrack:
		mainRoute, err = c.startBackOnTrackLocked(ctx, cfg)
	case models.GuidanceFreeNavigation:
		mainRoute, err = c.startFreeNavigationLocked(ctx, cfg)
	case models.GuidanceNone:
		// Rejected above.
	}

	if err != nil {
		return c.failStart(ctx, cfg.Type, err)
	}

	c.generation++
	c.session = &session{
		mode:       cfg.Type,
		startedAt:  time.Now(),
		mainRoute:  mainRoute,
		generation: c.generation,
	}
	c.metrics.ActiveGuidance.WithLabelValues(string(cfg.Type)).Set(1)

	c.log.InfoContext(ctx, "Guidance started", "type", string(cfg.Type))
	c.notifier.Notify(events.Event{
		Type: events.GuidanceStarted,
		Payload: map[string]any{
			"type":      string(cfg.Type),
			"startTime": c.session.startedAt,
			"config":    cfg,
		},
	})

	return nil
}

// StopGuidance stops the active guidance session. Calling it while idle is a
// no-op and emits nothing.
func (c *Coordinator) StopGuidance(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return
	}

	c.stopLocked(ctx, "stopped")
}

// UpdatePosition feeds a visitor position into the active session: it runs
// the rate-limited deviation check (and the automatic back-on-track
// transition when enabled), confirms recovery while correcting, and returns
// the mode-specific status. When no guidance is active it returns an
// explicit inactive status without emitting anything.
func (c *Coordinator) UpdatePosition(ctx context.Context, pos models.Coordinates) (*PositionStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return &PositionStatus{Active: false}, nil
	}

	status := &PositionStatus{
		Active:       true,
		GuidanceType: c.session.mode,
	}

	if c.session.mainRoute != nil && c.session.mode != models.GuidanceBackOnTrack {
		check := c.corrector.CheckDeviation(ctx, pos, c.session.mainRoute)
		if check.Checked {
			status.Deviation = &check
		}

		if check.Checked && check.Deviated && c.settings.AutoCorrectDeviations {
			if err := c.beginCorrectionLocked(ctx, pos); err != nil {
				c.log.ErrorContext(ctx, "Failed to start deviation correction", "error", err)
			}
			status.GuidanceType = c.session.mode
		}
	}

	if c.session.mode == models.GuidanceBackOnTrack {
		if result, ok := c.corrector.ConfirmRecovery(ctx, pos, c.session.mainRoute); ok {
			c.completeRecoveryLocked(ctx, result)
			status.GuidanceType = c.session.mode
		}
	}

	c.collectStatusLocked(ctx, pos, status)

	c.notifier.Notify(events.Event{
		Type: events.PositionUpdated,
		Payload: map[string]any{
			"position":     pos,
			"guidanceType": string(status.GuidanceType),
			"guidanceInfo": status,
		},
	})

	return status, nil
}

// Status returns the current session snapshot, or an inactive status when no
// guidance is running.
func (c *Coordinator) Status() *SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return &SessionStatus{Active: false}
	}

	status := &SessionStatus{
		Active:       true,
		GuidanceType: c.session.mode,
		StartedAt:    c.session.startedAt,
		Elapsed:      time.Since(c.session.startedAt),
	}

	switch c.session.mode {
	case models.GuidanceGuidedTour:
		status.Tour = c.tour.Progress()
	case models.GuidanceBackOnTrack:
		status.Correction = c.corrector.Status()
		if c.session.pausedTour {
			status.Tour = c.tour.Progress()
		}
	case models.GuidanceFreeNavigation, models.GuidanceNone:
	}

	return status
}

// ApplySettings replaces the shared guidance settings as a whole. The same
// Settings value is referenced by every sub-service, so the replace is
// visible everywhere at once.
func (c *Coordinator) ApplySettings(settings models.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	*c.settings = settings
}

// Settings returns a copy of the current guidance settings.
func (c *Coordinator) Settings() models.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	return *c.settings
}

// beginCorrectionLocked performs the deviation-to-correction transition:
// the tour is paused (progress preserved), the corrector starts toward the
// main route, and only then does the mode label switch to BackOnTrack.
func (c *Coordinator) beginCorrectionLocked(ctx context.Context, pos models.Coordinates) error {
	pausedTour := false
	if c.session.mode == models.GuidanceGuidedTour {
		c.tour.Pause()
		pausedTour = true
	}

	if err := c.corrector.StartBackOnTrack(ctx, pos, c.session.mainRoute); err != nil {
		if pausedTour {
			c.tour.Resume()
		}
		return err
	}

	c.metrics.ActiveGuidance.WithLabelValues(string(c.session.mode)).Set(0)
	c.session.mode = models.GuidanceBackOnTrack
	c.session.pausedTour = pausedTour
	c.metrics.ActiveGuidance.WithLabelValues(string(models.GuidanceBackOnTrack)).Set(1)

	c.log.InfoContext(ctx, "Switched to back-on-track mode", "tour_paused", pausedTour)

	return nil
}

// completeRecoveryLocked performs the recovery transition after the
// corrector confirmed the visitor is back within the threshold: the paused
// tour is resumed at the POI it was heading to and navigation toward it is
// re-issued. A manual back-on-track session without a paused tour simply
// ends.
func (c *Coordinator) completeRecoveryLocked(ctx context.Context, result *RecoveryResult) {
	c.metrics.ActiveGuidance.WithLabelValues(string(models.GuidanceBackOnTrack)).Set(0)

	payload := map[string]any{
		"deviationDuration":    result.DeviationDuration,
		"correctionSuccessful": true,
	}
	if result.Reconnection != nil {
		payload["reconnectionPoint"] = *result.Reconnection
	}

	if !c.session.pausedTour {
		c.session = nil
		c.notifier.Notify(events.Event{Type: events.ReturnedToMainRoute, Payload: payload})
		c.notifier.Notify(events.Event{
			Type: events.GuidanceStopped,
			Payload: map[string]any{
				"previousType": string(models.GuidanceBackOnTrack),
				"reason":       "recovered",
			},
		})
		return
	}

	c.tour.Resume()
	c.session.mode = models.GuidanceGuidedTour
	c.session.pausedTour = false
	c.metrics.ActiveGuidance.WithLabelValues(string(models.GuidanceGuidedTour)).Set(1)

	if poi := c.tour.CurrentPOI(); poi != nil {
		if err := c.tour.NavigateToPOI(ctx, poi); err != nil {
			c.log.ErrorContext(ctx, "Failed to resume navigation to POI", "poi", poi.Name, "error", err)
		}
	}

	c.log.InfoContext(ctx, "Resumed guided tour after correction",
		"deviation_duration", result.DeviationDuration)

	c.notifier.Notify(events.Event{Type: events.ReturnedToMainRoute, Payload: payload})
}

// handleCorrectionArrival is installed on the corrector and invoked from the
// navigation player when it reports arrival at the reconnection point. The
// generation check discards arrivals that outlived their session.
func (c *Coordinator) handleCorrectionArrival(ctx context.Context, pos models.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.mode != models.GuidanceBackOnTrack {
		return
	}
	if c.session.generation != c.generation {
		return
	}

	if result, ok := c.corrector.ConfirmRecovery(ctx, pos, c.session.mainRoute); ok {
		c.completeRecoveryLocked(ctx, result)
	}
}

// collectStatusLocked fetches mode-specific progress for a position update.
func (c *Coordinator) collectStatusLocked(ctx context.Context, pos models.Coordinates, status *PositionStatus) {
	if c.session == nil {
		// Recovery of a manual back-on-track session just ended guidance.
		status.GuidanceType = models.GuidanceNone
		return
	}

	switch c.session.mode {
	case models.GuidanceGuidedTour:
		status.Tour = c.tour.HandlePosition(ctx, pos)
	case models.GuidanceBackOnTrack:
		status.Correction = c.corrector.Status()
		if c.session.pausedTour {
			// Keep the paused tour's last position fresh for resumption.
			status.Tour = c.tour.HandlePosition(ctx, pos)
		}
	case models.GuidanceFreeNavigation, models.GuidanceNone:
	}
}

// startBackOnTrackLocked validates and starts a manually requested
// back-on-track session.
func (c *Coordinator) startBackOnTrackLocked(ctx context.Context, cfg Config) (*models.Route, error) {
	if cfg.Route == nil || cfg.Position == nil {
		return nil, fmt.Errorf("%w: back-on-track mode requires a route and a position", ErrInvalidConfiguration)
	}

	if err := c.corrector.StartBackOnTrack(ctx, *cfg.Position, cfg.Route); err != nil {
		return nil, err
	}

	return cfg.Route, nil
}

// startFreeNavigationLocked computes a point-to-point route and hands it to
// the player.
func (c *Coordinator) startFreeNavigationLocked(ctx context.Context, cfg Config) (*models.Route, error) {
	if cfg.Position == nil || cfg.Destination == nil {
		return nil, fmt.Errorf(
			"%w: free navigation requires a position and a destination", ErrInvalidConfiguration)
	}

	startTime := time.Now()
	route, err := c.provider.CalculateRoute(ctx, *cfg.Position, *cfg.Destination)
	c.metrics.RouteSeconds.WithLabelValues(c.providerName).Observe(time.Since(startTime).Seconds())
	if err != nil {
		c.metrics.ProviderAPIError.Inc()
		return nil, fmt.Errorf("%w: %w", ErrRouteComputation, err)
	}
	if len(route.Geometry) == 0 {
		return nil, fmt.Errorf("%w: provider returned route without geometry", ErrRouteComputation)
	}

	if err = c.player.StartNavigation(ctx, route); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNavigationStart, err)
	}

	return route, nil
}

// stopLocked tears the active session down: the sub-service is stopped
// before any state is cleared, and GUIDANCE_STOPPED carries the previous
// mode.
func (c *Coordinator) stopLocked(ctx context.Context, reason string) {
	previous := c.session.mode

	switch previous {
	case models.GuidanceGuidedTour:
		c.tour.Stop(ctx)
	case models.GuidanceBackOnTrack:
		c.corrector.StopBackOnTrack(ctx)
		if c.session.pausedTour {
			c.tour.Stop(ctx)
		}
	case models.GuidanceFreeNavigation:
		c.player.StopNavigation()
	case models.GuidanceNone:
	}

	c.generation++
	c.session = nil
	c.metrics.ActiveGuidance.WithLabelValues(string(previous)).Set(0)

	c.log.InfoContext(ctx, "Guidance stopped", "previous", string(previous), "reason", reason)
	c.notifier.Notify(events.Event{
		Type: events.GuidanceStopped,
		Payload: map[string]any{
			"previousType": string(previous),
			"reason":       reason,
		},
	})
}

// failStart surfaces a start failure both as a return value and a
// GUIDANCE_ERROR event. Config validation fails before the previous session
// is torn down, so it stays intact; a dispatch failure happens after
// teardown, which already left the session at None.
func (c *Coordinator) failStart(ctx context.Context, guidanceType models.GuidanceType, err error) error {
	c.log.ErrorContext(ctx, "Failed to start guidance", "type", string(guidanceType), "error", err)
	c.notifier.Notify(events.Event{
		Type: events.GuidanceError,
		Payload: map[string]any{
			"message": fmt.Sprintf("failed to start guidance type %q", guidanceType),
			"error":   err.Error(),
		},
	})

	return err
}

// forward relays sub-service events to the coordinator's subscribers.
// Deviation notifications are enriched with the current tour progress so
// listeners see what was paused.
func (c *Coordinator) forward(event events.Event) {
	if event.Type == events.DeviationDetected && c.tour.Route() != nil {
		payload := make(map[string]any, len(event.Payload)+1)
		for key, value := range event.Payload {
			payload[key] = value
		}
		payload["tourProgress"] = c.tour.Progress()
		event.Payload = payload
	}

	c.notifier.Notify(event)
}
