// Package retrieval resolves nearby and similarity queries through ordered
// fallback chains. Read paths degrade to weaker strategies rather than
// fail; similarity search fails loudly when no embedding can be produced.
package retrieval

import (
	"context"
	"log/slog"

	"github.com/avaldes/marsight/internal/db"
)

// Provenance tags which strategy produced a nearby result set. The
// last-resort recent listing has no distance semantics at all, so callers
// must be able to tell it apart from true radius-filtered results.
type Provenance string

const (
	// ProvenanceDistance: store-side distance-filtered query, authoritative.
	ProvenanceDistance Provenance = "distance"
	// ProvenanceCoordinates: all positioned objects with decoded lat/lng,
	// unfiltered by distance. Callers must filter themselves.
	ProvenanceCoordinates Provenance = "coordinates"
	// ProvenanceRecent: most recent objects by creation time, no distance
	// guarantee whatsoever.
	ProvenanceRecent Provenance = "recent"
)

// recentLimit bounds the last-resort recent listing.
const recentLimit = 100

// Store is the query capability the resolvers need from the database.
type Store interface {
	QueryNearbyObjects(ctx context.Context, lat, lng float64, radiusMeters float64) ([]db.RetrievedObject, error)
	QueryObjectsWithCoords(ctx context.Context) ([]db.RetrievedObject, error)
	QueryRecentObjects(ctx context.Context, limit int) ([]db.RetrievedObject, error)
	QueryVectorNeighbors(ctx context.Context, embedding []float32, threshold float64, limit int) ([]db.RetrievedObject, error)
}

// NearbyQuery asks for objects around a GPS coordinate.
type NearbyQuery struct {
	Lat          float64
	Lng          float64
	RadiusMeters float64
}

// NearbyResult is a resolved nearby query with its provenance tag.
type NearbyResult struct {
	Objects    []db.RetrievedObject `json:"objects"`
	Provenance Provenance           `json:"provenance"`
}

// nearbyStrategy is one step of the fallback chain: a named query whose
// failure or empty result moves resolution to the next step.
type nearbyStrategy struct {
	name       string
	provenance Provenance
	run        func(ctx context.Context, q NearbyQuery) ([]db.RetrievedObject, error)
}

// NearbyResolver resolves nearby-by-location queries through an explicit
// ordered strategy list.
type NearbyResolver struct {
	strategies []nearbyStrategy
}

// NewNearbyResolver builds the resolver with its strategies in priority
// order: distance-filtered, coordinate extraction, recent listing.
func NewNearbyResolver(store Store) *NearbyResolver {
	return &NearbyResolver{
		strategies: []nearbyStrategy{
			{
				name:       "distance_filtered",
				provenance: ProvenanceDistance,
				run: func(ctx context.Context, q NearbyQuery) ([]db.RetrievedObject, error) {
					return store.QueryNearbyObjects(ctx, q.Lat, q.Lng, q.RadiusMeters)
				},
			},
			{
				name:       "coordinate_extraction",
				provenance: ProvenanceCoordinates,
				run: func(ctx context.Context, q NearbyQuery) ([]db.RetrievedObject, error) {
					return store.QueryObjectsWithCoords(ctx)
				},
			},
			{
				name:       "recent_listing",
				provenance: ProvenanceRecent,
				run: func(ctx context.Context, q NearbyQuery) ([]db.RetrievedObject, error) {
					return store.QueryRecentObjects(ctx, recentLimit)
				},
			},
		},
	}
}

// Resolve tries each strategy in order and adopts the first non-empty,
// error-free result. Strategy failures are logged and treated as "try the
// next one"; if every strategy fails or comes back empty, the result is an
// empty list, never an error.
func (r *NearbyResolver) Resolve(ctx context.Context, q NearbyQuery) NearbyResult {
	for _, strategy := range r.strategies {
		objects, err := strategy.run(ctx, q)
		if err != nil {
			slog.Warn("nearby strategy failed, trying next",
				"strategy", strategy.name, "error", err)
			continue
		}
		if len(objects) == 0 {
			continue
		}
		return NearbyResult{Objects: objects, Provenance: strategy.provenance}
	}

	return NearbyResult{Objects: []db.RetrievedObject{}}
}
