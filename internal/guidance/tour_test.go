package guidance_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/litbeFred/langres-guidance-service/internal/events"
	"github.com/litbeFred/langres-guidance-service/internal/guidance"
	"github.com/litbeFred/langres-guidance-service/internal/models"
	"github.com/litbeFred/langres-guidance-service/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// langresPOIs returns three tour stops roughly 110m apart, listed out of
// visiting order on purpose.
func langresPOIs() []models.POI {
	return []models.POI{
		{
			ID:           "poi-3",
			Name:         "Tour de Navarre",
			Description:  "Renaissance artillery tower.",
			Position:     models.Coordinates{Latitude: 47.8620, Longitude: 5.3350},
			Order:        3,
			RadiusMeters: 10,
		},
		{
			ID:           "poi-1",
			Name:         "Porte des Moulins",
			Description:  "Main southern gate of the old town.",
			Position:     models.Coordinates{Latitude: 47.8600, Longitude: 5.3350},
			Order:        1,
			RadiusMeters: 10,
		},
		{
			ID:           "poi-2",
			Name:         "Cathedrale Saint-Mammes",
			Description:  "Twelfth century cathedral.",
			Position:     models.Coordinates{Latitude: 47.8610, Longitude: 5.3350},
			Order:        2,
			RadiusMeters: 10,
		},
	}
}

func newTourNavigator(
	t *testing.T,
	settings *models.Settings,
) (*guidance.TourNavigator, *mocks.Provider, *mocks.Player, *mocks.Narrator) {
	t.Helper()

	provider := mocks.NewProvider(t)
	navPlayer := mocks.NewPlayer(t)
	speaker := mocks.NewNarrator(t)

	tour := guidance.NewTourNavigator(
		slog.Default(), provider, "test", navPlayer, speaker, settings, newTestMetrics(),
	)

	return tour, provider, navPlayer, speaker
}

func TestTourNavigator_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("error - no POIs", func(t *testing.T) {
		tour, _, _, _ := newTourNavigator(t, testSettings())

		err := tour.Start(ctx, nil, guidance.TourOptions{})

		require.ErrorIs(t, err, guidance.ErrInvalidConfiguration)
		assert.False(t, tour.Active())
	})

	t.Run("sorts POIs and aggregates the route", func(t *testing.T) {
		tour, provider, navPlayer, _ := newTourNavigator(t, testSettings())
		stubStraightRoutes(provider)
		navPlayer.On("StartNavigation", mock.Anything, mock.Anything).Return(nil).Once()

		err := tour.Start(ctx, langresPOIs(), guidance.TourOptions{})

		require.NoError(t, err)
		assert.True(t, tour.Active())

		current := tour.CurrentPOI()
		require.NotNil(t, current)
		assert.Equal(t, "Porte des Moulins", current.Name)

		// Two straight legs of two points each share their junction.
		route := tour.Route()
		require.NotNil(t, route)
		assert.Len(t, route.Geometry, 3)
		require.Len(t, route.Segments, 2)
		assert.Equal(t, "Porte des Moulins", route.Segments[0].From)
		assert.Equal(t, "Cathedrale Saint-Mammes", route.Segments[0].To)
		assert.Equal(t, "Tour de Navarre", route.Segments[1].To)
	})

	t.Run("single POI tour degrades to a point route", func(t *testing.T) {
		tour, provider, navPlayer, _ := newTourNavigator(t, testSettings())
		stubStraightRoutes(provider)
		navPlayer.On("StartNavigation", mock.Anything, mock.Anything).Return(nil).Once()

		pois := langresPOIs()[1:2]
		err := tour.Start(ctx, pois, guidance.TourOptions{})

		require.NoError(t, err)
		route := tour.Route()
		require.NotNil(t, route)
		require.Len(t, route.Geometry, 1)
		assert.Equal(t, pois[0].Position, route.Geometry[0])
	})

	t.Run("start position feeds the first leg", func(t *testing.T) {
		tour, provider, navPlayer, _ := newTourNavigator(t, testSettings())
		stubStraightRoutes(provider)

		var firstLeg *models.Route
		navPlayer.On("StartNavigation", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				firstLeg = args.Get(1).(*models.Route)
			}).
			Return(nil).Once()

		start := models.Coordinates{Latitude: 47.8590, Longitude: 5.3340}
		err := tour.Start(ctx, langresPOIs(), guidance.TourOptions{StartPosition: &start})

		require.NoError(t, err)
		require.NotNil(t, firstLeg)
		assert.Equal(t, start, firstLeg.Geometry[0])
	})

	t.Run("error - routing failure aborts the start", func(t *testing.T) {
		tour, provider, _, _ := newTourNavigator(t, testSettings())
		provider.On("CalculateRoute", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, assert.AnError)

		err := tour.Start(ctx, langresPOIs(), guidance.TourOptions{})

		require.ErrorIs(t, err, guidance.ErrRouteComputation)
		require.ErrorIs(t, err, assert.AnError)
		assert.False(t, tour.Active())
	})

	t.Run("error - player failure resets the tour", func(t *testing.T) {
		tour, provider, navPlayer, _ := newTourNavigator(t, testSettings())
		stubStraightRoutes(provider)
		navPlayer.On("StartNavigation", mock.Anything, mock.Anything).Return(assert.AnError).Once()

		err := tour.Start(ctx, langresPOIs(), guidance.TourOptions{})

		require.ErrorIs(t, err, guidance.ErrNavigationStart)
		assert.False(t, tour.Active())
		assert.Nil(t, tour.CurrentPOI())
		assert.Nil(t, tour.Route())
	})
}

func TestTourNavigator_HandlePosition(t *testing.T) {
	ctx := context.Background()

	startTour := func(t *testing.T, settings *models.Settings) (*guidance.TourNavigator, *mocks.Player, *mocks.Narrator) {
		t.Helper()

		tour, provider, navPlayer, speaker := newTourNavigator(t, settings)
		stubStraightRoutes(provider)
		navPlayer.On("StartNavigation", mock.Anything, mock.Anything).Return(nil)
		require.NoError(t, tour.Start(ctx, langresPOIs(), guidance.TourOptions{}))

		return tour, navPlayer, speaker
	}

	t.Run("position away from the current POI changes nothing", func(t *testing.T) {
		tour, _, _ := startTour(t, testSettings())

		progress := tour.HandlePosition(ctx, models.Coordinates{Latitude: 47.8605, Longitude: 5.3350})

		require.NotNil(t, progress)
		assert.Equal(t, 0, progress.VisitedCount)
		assert.Equal(t, 3, progress.TotalCount)
		assert.Equal(t, "Porte des Moulins", progress.CurrentPOI.Name)
	})

	t.Run("entering the radius reaches the POI and advances", func(t *testing.T) {
		tour, _, _ := startTour(t, testSettings())
		recorder := &eventRecorder{}
		tour.Subscribe(recorder.listen)

		pois := langresPOIs()
		progress := tour.HandlePosition(ctx, pois[1].Position)

		require.NotNil(t, progress)
		assert.Equal(t, 1, progress.VisitedCount)
		assert.Equal(t, "Cathedrale Saint-Mammes", progress.CurrentPOI.Name)

		require.Equal(t, 1, recorder.count(events.POIReached))
		reached := recorder.byType(events.POIReached)[0]
		assert.Equal(t, "poi-1", reached.Payload["poi"])
		assert.Equal(t, 1, reached.Payload["visitedCount"])
	})

	t.Run("last POI completes the tour", func(t *testing.T) {
		tour, navPlayer, _ := startTour(t, testSettings())
		navPlayer.On("StopNavigation").Return().Once()
		recorder := &eventRecorder{}
		tour.Subscribe(recorder.listen)

		tour.HandlePosition(ctx, models.Coordinates{Latitude: 47.8600, Longitude: 5.3350})
		tour.HandlePosition(ctx, models.Coordinates{Latitude: 47.8610, Longitude: 5.3350})
		progress := tour.HandlePosition(ctx, models.Coordinates{Latitude: 47.8620, Longitude: 5.3350})

		assert.Equal(t, 3, progress.VisitedCount)
		assert.Nil(t, progress.CurrentPOI)
		assert.Equal(t, 3, recorder.count(events.POIReached))
		assert.Equal(t, 1, recorder.count(events.TourCompleted))
	})

	t.Run("paused tour only records the position", func(t *testing.T) {
		tour, _, _ := startTour(t, testSettings())
		recorder := &eventRecorder{}
		tour.Subscribe(recorder.listen)

		tour.Pause()
		progress := tour.HandlePosition(ctx, langresPOIs()[1].Position)

		assert.Equal(t, 0, progress.VisitedCount)
		assert.Empty(t, recorder.all())

		tour.Resume()
		progress = tour.HandlePosition(ctx, langresPOIs()[1].Position)
		assert.Equal(t, 1, progress.VisitedCount)
	})

	t.Run("narrates each discovery when audio is enabled", func(t *testing.T) {
		settings := testSettings()
		settings.AudioEnabled = true
		tour, _, speaker := startTour(t, settings)

		speaker.On("Speak", mock.Anything, "Porte des Moulins. Main southern gate of the old town.", "fr").
			Return().Once()

		tour.HandlePosition(ctx, models.Coordinates{Latitude: 47.8600, Longitude: 5.3350})
	})
}

func TestTourNavigator_Stop(t *testing.T) {
	ctx := context.Background()

	t.Run("stop tears navigation down and discards progress", func(t *testing.T) {
		tour, provider, navPlayer, _ := newTourNavigator(t, testSettings())
		stubStraightRoutes(provider)
		navPlayer.On("StartNavigation", mock.Anything, mock.Anything).Return(nil).Once()
		navPlayer.On("StopNavigation").Return().Once()
		require.NoError(t, tour.Start(ctx, langresPOIs(), guidance.TourOptions{}))

		tour.Stop(ctx)

		assert.False(t, tour.Active())
		assert.Nil(t, tour.CurrentPOI())
		assert.Nil(t, tour.Route())
		progress := tour.Progress()
		assert.Equal(t, 0, progress.TotalCount)
	})

	t.Run("stop on an idle navigator is a no-op", func(t *testing.T) {
		tour, _, _, _ := newTourNavigator(t, testSettings())

		assert.NotPanics(t, func() { tour.Stop(ctx) })
	})
}
