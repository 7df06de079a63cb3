package guidance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/litbeFred/langres-guidance-service/internal/events"
	"github.com/litbeFred/langres-guidance-service/internal/metrics"
	"github.com/litbeFred/langres-guidance-service/internal/models"
	"github.com/litbeFred/langres-guidance-service/internal/narrator"
	"github.com/litbeFred/langres-guidance-service/internal/player"
	"github.com/litbeFred/langres-guidance-service/internal/routing"
)

// TourOptions tunes how a guided tour starts.
type TourOptions struct {
	// StartPosition is the visitor's position when the tour begins. When
	// set, the first navigation leg starts there instead of at the first POI.
	StartPosition *models.Coordinates
}

// TourNavigator drives sequential visits to an ordered list of POIs. It
// builds one aggregate route across the whole tour (used by deviation
// checks), hands each leg to the navigation player, and tracks visiting
// progress.
//
// The navigator has an explicit paused state: Pause and Resume toggle the
// active flag without discarding accumulated progress, so the coordinator
// can interleave a back-on-track correction and pick the tour up where it
// left off.
type TourNavigator struct {
	log          *slog.Logger
	provider     routing.Provider
	providerName string
	player       player.Player
	narrator     narrator.Narrator
	settings     *models.Settings
	metrics      *metrics.Metrics
	notifier     *events.Notifier

	active       bool
	pois         []models.POI
	currentIdx   int
	visited      int
	route        *models.Route
	lastPosition *models.Coordinates
}

// NewTourNavigator creates a tour navigator around the given collaborators.
func NewTourNavigator(
	log *slog.Logger,
	provider routing.Provider,
	providerName string,
	navPlayer player.Player,
	speaker narrator.Narrator,
	settings *models.Settings,
	appMetrics *metrics.Metrics,
) *TourNavigator {
	return &TourNavigator{
		log:          log,
		provider:     provider,
		providerName: providerName,
		player:       navPlayer,
		narrator:     speaker,
		settings:     settings,
		metrics:      appMetrics,
		notifier:     events.NewNotifier(log),
	}
}

// Start begins a guided tour over the given POIs: it builds the aggregate
// route across all of them and starts navigating toward the first one.
func (tn *TourNavigator) Start(ctx context.Context, pois []models.POI, opts TourOptions) error {
	if len(pois) == 0 {
		return fmt.Errorf("%w: guided tour requires at least one POI", ErrInvalidConfiguration)
	}

	ordered := make([]models.POI, len(pois))
	copy(ordered, pois)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	route, err := tn.buildAggregateRoute(ctx, ordered)
	if err != nil {
		return err
	}

	tn.pois = ordered
	tn.route = route
	tn.currentIdx = 0
	tn.visited = 0
	tn.active = true
	tn.lastPosition = opts.StartPosition

	tn.log.InfoContext(ctx, "Guided tour started", "pois", len(ordered), "route_points", len(route.Geometry))

	if err = tn.NavigateToPOI(ctx, &tn.pois[0]); err != nil {
		tn.reset()
		return err
	}

	return nil
}

// Stop tears down any active navigation for the tour and discards its
// progress. Calling Stop on an idle navigator is a no-op.
func (tn *TourNavigator) Stop(ctx context.Context) {
	if tn.pois == nil {
		return
	}

	tn.player.StopNavigation()
	tn.reset()
	tn.log.InfoContext(ctx, "Guided tour stopped")
}

// Pause marks the tour inactive without touching its progress. Positions
// forwarded while paused do not advance the tour.
func (tn *TourNavigator) Pause() {
	tn.active = false
}

// Resume reactivates a paused tour at the POI it was heading to.
func (tn *TourNavigator) Resume() {
	if tn.pois != nil {
		tn.active = true
	}
}

// Active reports whether the tour is running (started and not paused).
func (tn *TourNavigator) Active() bool {
	return tn.active
}

// NavigateToPOI issues a routing request toward the given POI and hands the
// resulting plan to the navigation player.
func (tn *TourNavigator) NavigateToPOI(ctx context.Context, poi *models.POI) error {
	start := poi.Position
	if tn.lastPosition != nil {
		start = *tn.lastPosition
	}

	leg, err := tn.calculateLeg(ctx, start, poi.Position)
	if err != nil {
		return fmt.Errorf("%w: failed to route to POI %q: %w", ErrRouteComputation, poi.Name, err)
	}

	if err = tn.player.StartNavigation(ctx, leg); err != nil {
		return fmt.Errorf("%w: %w", ErrNavigationStart, err)
	}

	tn.log.DebugContext(ctx, "Navigating to POI", "poi", poi.Name, "distance_m", leg.DistanceMeters)

	return nil
}

// HandlePosition processes a forwarded position update: it detects POI
// arrivals, narrates discoveries, advances to the next unvisited POI, and
// returns the current progress snapshot. While paused it only records the
// position.
func (tn *TourNavigator) HandlePosition(ctx context.Context, pos models.Coordinates) *models.TourProgress {
	tn.lastPosition = &pos

	if !tn.active {
		return tn.Progress()
	}

	current := tn.CurrentPOI()
	if current == nil {
		return tn.Progress()
	}

	if pos.DistanceTo(current.Position) <= current.RadiusMeters {
		tn.reachPOI(ctx, current)
	}

	return tn.Progress()
}

// Progress returns visited count, the POI currently navigated to, and the
// aggregate route held for deviation checks.
func (tn *TourNavigator) Progress() *models.TourProgress {
	return &models.TourProgress{
		VisitedCount: tn.visited,
		TotalCount:   len(tn.pois),
		CurrentPOI:   tn.CurrentPOI(),
		Route:        tn.route,
	}
}

// CurrentPOI returns the POI the tour is heading to, or nil once every POI
// has been visited or no tour is loaded.
func (tn *TourNavigator) CurrentPOI() *models.POI {
	if tn.pois == nil || tn.currentIdx >= len(tn.pois) {
		return nil
	}

	return &tn.pois[tn.currentIdx]
}

// Route returns the aggregate route across all tour POIs.
func (tn *TourNavigator) Route() *models.Route {
	return tn.route
}

// Subscribe registers a listener for tour events (POI_REACHED, TOUR_COMPLETED).
func (tn *TourNavigator) Subscribe(listener events.Listener) string {
	return tn.notifier.Subscribe(listener)
}

// Unsubscribe removes a previously registered listener.
func (tn *TourNavigator) Unsubscribe(id string) {
	tn.notifier.Unsubscribe(id)
}

// reachPOI records the arrival, narrates the discovery, and moves on to the
// next unvisited POI or completes the tour.
func (tn *TourNavigator) reachPOI(ctx context.Context, poi *models.POI) {
	tn.visited++
	tn.metrics.POIsVisited.Inc()
	tn.log.InfoContext(ctx, "POI reached", "poi", poi.Name, "visited", tn.visited, "total", len(tn.pois))

	tn.speak(ctx, poi.Name+". "+poi.Description)

	tn.notifier.Notify(events.Event{
		Type: events.POIReached,
		Payload: map[string]any{
			"poi":          poi.ID,
			"name":         poi.Name,
			"visitedCount": tn.visited,
			"totalCount":   len(tn.pois),
		},
	})

	tn.currentIdx++

	next := tn.CurrentPOI()
	if next == nil {
		tn.completeTour(ctx)
		return
	}

	if err := tn.NavigateToPOI(ctx, next); err != nil {
		tn.log.ErrorContext(ctx, "Failed to navigate to next POI", "poi", next.Name, "error", err)
		tn.notifier.Notify(events.Event{
			Type: events.GuidanceError,
			Payload: map[string]any{
				"message": "failed to navigate to next POI",
				"error":   err.Error(),
			},
		})
	}
}

func (tn *TourNavigator) completeTour(ctx context.Context) {
	tn.player.StopNavigation()
	tn.log.InfoContext(ctx, "Tour completed", "visited", tn.visited)

	tn.speak(ctx, "You have reached the end of the tour. Thank you for walking with us.")

	tn.notifier.Notify(events.Event{
		Type: events.TourCompleted,
		Payload: map[string]any{
			"visitedCount": tn.visited,
			"totalCount":   len(tn.pois),
		},
	})
}

// buildAggregateRoute concatenates provider legs between consecutive POIs
// into the single route used for deviation checks. A one-POI tour degrades
// to a route whose geometry is just that POI's position.
func (tn *TourNavigator) buildAggregateRoute(ctx context.Context, pois []models.POI) (*models.Route, error) {
	if len(pois) == 1 {
		return &models.Route{Geometry: []models.Coordinates{pois[0].Position}}, nil
	}

	aggregate := &models.Route{}
	for i := 0; i < len(pois)-1; i++ {
		leg, err := tn.calculateLeg(ctx, pois[i].Position, pois[i+1].Position)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to route tour leg %q -> %q: %w",
				ErrRouteComputation, pois[i].Name, pois[i+1].Name, err)
		}

		geometry := leg.Geometry
		if i > 0 && len(geometry) > 0 {
			// Successive legs share their junction coordinate.
			geometry = geometry[1:]
		}
		aggregate.Geometry = append(aggregate.Geometry, geometry...)
		aggregate.DistanceMeters += leg.DistanceMeters
		aggregate.Duration += leg.Duration

		instructions := make([]string, 0)
		for _, segment := range leg.Segments {
			instructions = append(instructions, segment.Instructions...)
		}
		aggregate.Segments = append(aggregate.Segments, models.Segment{
			From:           pois[i].Name,
			To:             pois[i+1].Name,
			DistanceMeters: leg.DistanceMeters,
			Duration:       leg.Duration,
			Instructions:   instructions,
		})
	}

	if len(aggregate.Geometry) == 0 {
		return nil, fmt.Errorf("%w: aggregate tour route has no geometry", ErrRouteComputation)
	}

	return aggregate, nil
}

// calculateLeg asks the routing provider for one leg and observes the
// request duration.
func (tn *TourNavigator) calculateLeg(ctx context.Context, start, end models.Coordinates) (*models.Route, error) {
	startTime := time.Now()
	leg, err := tn.provider.CalculateRoute(ctx, start, end)
	tn.metrics.RouteSeconds.WithLabelValues(tn.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		tn.metrics.ProviderAPIError.Inc()
		return nil, err
	}

	return leg, nil
}

func (tn *TourNavigator) speak(ctx context.Context, text string) {
	if !tn.settings.AudioEnabled {
		return
	}

	tn.metrics.Narrations.Inc()
	tn.narrator.Speak(ctx, text, tn.settings.Language)
}

func (tn *TourNavigator) reset() {
	tn.active = false
	tn.pois = nil
	tn.route = nil
	tn.currentIdx = 0
	tn.visited = 0
	tn.lastPosition = nil
}
