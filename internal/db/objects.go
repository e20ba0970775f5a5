package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/avaldes/marsight/internal/models"
)

// retrievedFields is the projection shared by the object retrieval queries.
const retrievedFields = `id, name, object_class, description, metadata, mission_id, created_at`

// RetrievedObject is the shape returned by the retrieval queries. Lat/Lng
// are decoded from the stored geometry when the query extracts them;
// Distance and Similarity are filled only by the queries that compute them.
type RetrievedObject struct {
	ID          surrealmodels.RecordID  `json:"id"`
	Name        string                  `json:"name"`
	ObjectClass string                  `json:"object_class"`
	Description string                  `json:"description"`
	Metadata    map[string]any          `json:"metadata"`
	MissionID   *surrealmodels.RecordID `json:"mission_id,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	Lat         *float64                `json:"lat,omitempty"`
	Lng         *float64                `json:"lng,omitempty"`
	Distance    *float64                `json:"distance,omitempty"`
	Similarity  *float64                `json:"similarity,omitempty"`
}

// NewObject is the fully assembled record an ingestion hands to the store.
type NewObject struct {
	Name        string
	ObjectClass string
	Description string
	Confidence  float64
	Position    *models.GeoPoint
	Embedding   []float32
	Metadata    map[string]any
	MissionID   *string
}

// CreateObject persists a captured object and returns the stored record.
func (c *Client) CreateObject(ctx context.Context, obj NewObject) (*models.CapturedObject, error) {
	content := map[string]any{
		"name":         obj.Name,
		"object_class": obj.ObjectClass,
		"description":  obj.Description,
		"confidence":   obj.Confidence,
		"metadata":     obj.Metadata,
	}
	if obj.Position != nil {
		content["position"] = obj.Position
	}
	if obj.Embedding != nil {
		content["embedding"] = obj.Embedding
	}
	if obj.MissionID != nil {
		content["mission_id"] = surrealmodels.NewRecordID("mission", *obj.MissionID)
	}

	results, err := surrealdb.Query[[]models.CapturedObject](ctx, c.db, `
		CREATE captured_object CONTENT $content
	`, map[string]any{"content": content})
	if err != nil {
		return nil, fmt.Errorf("create object: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create object: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// GetObject retrieves an object by ID. Returns ErrNotFound if absent.
func (c *Client) GetObject(ctx context.Context, id string) (*models.CapturedObject, error) {
	results, err := surrealdb.Query[[]models.CapturedObject](ctx, c.db, `
		SELECT * FROM type::record("captured_object", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// UpdateObject mutates the explicitly updatable fields of an object.
func (c *Client) UpdateObject(ctx context.Context, id string, upd models.CapturedObjectUpdate) error {
	sql := `
		UPDATE type::record("captured_object", $id) SET
			name = $name,
			description = $description
	`
	vars := map[string]any{
		"id":          id,
		"name":        upd.Name,
		"description": upd.Description,
	}
	if upd.Subcategory != nil {
		sql += ", subcategory = $subcategory"
		vars["subcategory"] = *upd.Subcategory
	}
	if upd.ObjectClass != nil {
		sql += ", object_class = $object_class"
		vars["object_class"] = *upd.ObjectClass
	}

	results, err := surrealdb.Query[[]models.CapturedObject](ctx, c.db, sql, vars)
	if err != nil {
		return fmt.Errorf("update object: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteObject removes an object by ID.
func (c *Client) DeleteObject(ctx context.Context, id string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE type::record("captured_object", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete object: %w", wrapQueryError(err))
	}
	return nil
}

// QueryNearbyObjects returns objects within radiusMeters of the given
// coordinate, closest first, with true store-side distance filtering.
func (c *Client) QueryNearbyObjects(ctx context.Context, lat, lng float64, radiusMeters float64) ([]RetrievedObject, error) {
	results, err := surrealdb.Query[[]RetrievedObject](ctx, c.db, fmt.Sprintf(`
		SELECT %s,
			position.coordinates[1] AS lat,
			position.coordinates[0] AS lng,
			geo::distance(position, type::point([$lng, $lat])) AS distance
		FROM captured_object
		WHERE position != NONE
			AND geo::distance(position, type::point([$lng, $lat])) <= $radius
		ORDER BY distance ASC
	`, retrievedFields), map[string]any{
		"lat":    lat,
		"lng":    lng,
		"radius": radiusMeters,
	})
	if err != nil {
		return nil, fmt.Errorf("nearby objects: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []RetrievedObject{}, nil
	}
	return (*results)[0].Result, nil
}

// QueryObjectsWithCoords returns all positioned objects with their decoded
// lat/lng, newest first, with no distance filtering.
func (c *Client) QueryObjectsWithCoords(ctx context.Context) ([]RetrievedObject, error) {
	results, err := surrealdb.Query[[]RetrievedObject](ctx, c.db, fmt.Sprintf(`
		SELECT %s,
			position.coordinates[1] AS lat,
			position.coordinates[0] AS lng
		FROM captured_object
		WHERE position != NONE
		ORDER BY created_at DESC
	`, retrievedFields), nil)
	if err != nil {
		return nil, fmt.Errorf("objects with coords: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []RetrievedObject{}, nil
	}
	return (*results)[0].Result, nil
}

// QueryRecentObjects returns the most recently created objects, with no
// position semantics at all.
func (c *Client) QueryRecentObjects(ctx context.Context, limit int) ([]RetrievedObject, error) {
	results, err := surrealdb.Query[[]RetrievedObject](ctx, c.db, fmt.Sprintf(`
		SELECT %s
		FROM captured_object
		ORDER BY created_at DESC
		LIMIT $limit
	`, retrievedFields), map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("recent objects: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []RetrievedObject{}, nil
	}
	return (*results)[0].Result, nil
}

// QueryVectorNeighbors returns the nearest stored embeddings to the given
// vector under cosine similarity, filtered by threshold. The HNSW operator
// requires a literal neighbor count, so limit is formatted into the query.
func (c *Client) QueryVectorNeighbors(ctx context.Context, embedding []float32, threshold float64, limit int) ([]RetrievedObject, error) {
	sql := fmt.Sprintf(`
		SELECT %s,
			vector::similarity::cosine(embedding, $emb) AS similarity
		FROM captured_object
		WHERE embedding <|%d,40|> $emb
			AND vector::similarity::cosine(embedding, $emb) >= $threshold
		ORDER BY similarity DESC
	`, retrievedFields, limit)

	results, err := surrealdb.Query[[]RetrievedObject](ctx, c.db, sql, map[string]any{
		"emb":       embedding,
		"threshold": threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("vector neighbors: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []RetrievedObject{}, nil
	}
	return (*results)[0].Result, nil
}
