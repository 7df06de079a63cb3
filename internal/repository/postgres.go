package repository

import (
	"context"
	"fmt"

	"github.com/litbeFred/langres-guidance-service/internal/models"
)

// FetchTours retrieves the published tours available for guidance, ordered
// by name.
//
// Parameters:
// - ctx: The context for the operation, allowing for cancellation and timeout.
//
// Returns:
// - A slice of models.Tour without their POI lists loaded.
// - An error if the query fails or if there is an issue scanning the results.
func (r *Repository) FetchTours(ctx context.Context) ([]models.Tour, error) {
	var tours []models.Tour
	query := `
		SELECT tour_id, name
		FROM public.tours
		WHERE is_published = true
		ORDER BY name ASC;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query published tours: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tour models.Tour
		if errScan := rows.Scan(&tour.ID, &tour.Name); errScan != nil {
			return nil, fmt.Errorf("failed to scan published tour: %w", errScan)
		}
		tours = append(tours, tour)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return tours, nil
}

// FetchTourPOIs retrieves the points of interest of a tour in their visiting
// order. POIs without a proximity radius fall back to the catalog default.
//
// Parameters:
// - ctx: The context for the operation, allowing for cancellation and timeout.
// - tourID: The identifier of the tour to load.
//
// Returns:
// - A slice of models.POI ordered by their sequence within the tour.
// - An error if the query fails or if there is an issue scanning the results.
func (r *Repository) FetchTourPOIs(ctx context.Context, tourID string) ([]models.POI, error) {
	var pois []models.POI
	query := `
		SELECT poi_id, name, description, latitude, longitude, seq_order, COALESCE(radius_meters, 20)
		FROM public.tour_pois
		WHERE tour_id = $1
		ORDER BY seq_order ASC;
	`

	rows, err := r.db.Query(ctx, query, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tour POIs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var poi models.POI
		if errScan := rows.Scan(
			&poi.ID, &poi.Name, &poi.Description,
			&poi.Position.Latitude, &poi.Position.Longitude,
			&poi.Order, &poi.RadiusMeters,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan tour POI: %w", errScan)
		}
		r.log.DebugContext(ctx, "Loaded tour POI", "ID", poi.ID, "Name", poi.Name, "Order", poi.Order)
		pois = append(pois, poi)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return pois, nil
}
