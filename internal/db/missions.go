package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/avaldes/marsight/internal/models"
)

// CreateMission starts a new active mission and returns the stored record.
func (c *Client) CreateMission(ctx context.Context, code string, input models.MissionInput) (*models.Mission, error) {
	climate := input.ClimateSnapshot
	if climate == nil {
		climate = map[string]any{}
	}

	results, err := surrealdb.Query[[]models.Mission](ctx, c.db, `
		CREATE mission CONTENT {
			code: $code,
			title: $title,
			zone: $zone,
			climate_snapshot: $climate,
			state: "active"
		}
	`, map[string]any{
		"code":    code,
		"title":   input.Title,
		"zone":    input.Zone,
		"climate": climate,
	})
	if err != nil {
		return nil, fmt.Errorf("create mission: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create mission: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// CompleteMission transitions an active mission to completed. The state
// guard in the query makes the transition happen exactly once; completing
// an already-completed or unknown mission returns ErrNotFound.
func (c *Client) CompleteMission(ctx context.Context, id string) error {
	results, err := surrealdb.Query[[]models.Mission](ctx, c.db, `
		UPDATE type::record("mission", $id) SET
			state = "completed",
			ended_at = time::now()
		WHERE state = "active"
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("complete mission: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMissions returns all missions, newest first.
func (c *Client) ListMissions(ctx context.Context) ([]models.Mission, error) {
	results, err := surrealdb.Query[[]models.Mission](ctx, c.db, `
		SELECT * FROM mission ORDER BY started_at DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.Mission{}, nil
	}
	return (*results)[0].Result, nil
}

// ListMissionObjects returns the objects owned by a mission, newest first.
func (c *Client) ListMissionObjects(ctx context.Context, missionID string) ([]models.CapturedObject, error) {
	results, err := surrealdb.Query[[]models.CapturedObject](ctx, c.db, `
		SELECT * FROM captured_object
		WHERE mission_id = type::record("mission", $id)
		ORDER BY created_at DESC
	`, map[string]any{"id": missionID})
	if err != nil {
		return nil, fmt.Errorf("list mission objects: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.CapturedObject{}, nil
	}
	return (*results)[0].Result, nil
}

// ListOrphanedObjects returns objects without an owning mission.
func (c *Client) ListOrphanedObjects(ctx context.Context) ([]models.CapturedObject, error) {
	results, err := surrealdb.Query[[]models.CapturedObject](ctx, c.db, `
		SELECT * FROM captured_object
		WHERE mission_id = NONE
		ORDER BY created_at DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list orphaned objects: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.CapturedObject{}, nil
	}
	return (*results)[0].Result, nil
}

// DeleteMission removes a mission and cascades the delete to its objects.
func (c *Client) DeleteMission(ctx context.Context, id string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE captured_object WHERE mission_id = type::record("mission", $id);
		DELETE type::record("mission", $id);
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete mission: %w", wrapQueryError(err))
	}
	return nil
}
