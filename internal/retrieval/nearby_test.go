package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/avaldes/marsight/internal/db"
)

// fakeStore implements Store with configurable results and call counters.
type fakeStore struct {
	nearbyObjects []db.RetrievedObject
	nearbyErr     error
	coordObjects  []db.RetrievedObject
	coordErr      error
	recentObjects []db.RetrievedObject
	recentErr     error
	vectorObjects []db.RetrievedObject
	vectorErr     error

	nearbyCalls int
	coordCalls  int
	recentCalls int
	vectorCalls int
}

func (f *fakeStore) QueryNearbyObjects(ctx context.Context, lat, lng, radius float64) ([]db.RetrievedObject, error) {
	f.nearbyCalls++
	return f.nearbyObjects, f.nearbyErr
}

func (f *fakeStore) QueryObjectsWithCoords(ctx context.Context) ([]db.RetrievedObject, error) {
	f.coordCalls++
	return f.coordObjects, f.coordErr
}

func (f *fakeStore) QueryRecentObjects(ctx context.Context, limit int) ([]db.RetrievedObject, error) {
	f.recentCalls++
	return f.recentObjects, f.recentErr
}

func (f *fakeStore) QueryVectorNeighbors(ctx context.Context, embedding []float32, threshold float64, limit int) ([]db.RetrievedObject, error) {
	f.vectorCalls++
	return f.vectorObjects, f.vectorErr
}

func obj(name string) db.RetrievedObject {
	return db.RetrievedObject{
		ID:   surrealmodels.NewRecordID("captured_object", name),
		Name: name,
	}
}

func TestNearbyPrimaryStrategyWins(t *testing.T) {
	store := &fakeStore{
		nearbyObjects: []db.RetrievedObject{obj("rock"), obj("antenna")},
		coordObjects:  []db.RetrievedObject{obj("should-not-appear")},
	}
	resolver := NewNearbyResolver(store)

	result := resolver.Resolve(context.Background(), NearbyQuery{Lat: -4.5, Lng: 137.4, RadiusMeters: 500})

	require.Len(t, result.Objects, 2)
	assert.Equal(t, "rock", result.Objects[0].Name)
	assert.Equal(t, ProvenanceDistance, result.Provenance)

	assert.Equal(t, 1, store.nearbyCalls)
	assert.Equal(t, 0, store.coordCalls, "fallback must not run when primary succeeds")
	assert.Equal(t, 0, store.recentCalls)
}

func TestNearbyFallsBackOnError(t *testing.T) {
	store := &fakeStore{
		nearbyErr:    errors.New("geo::distance not supported"),
		coordObjects: []db.RetrievedObject{obj("crater")},
	}
	resolver := NewNearbyResolver(store)

	result := resolver.Resolve(context.Background(), NearbyQuery{Lat: 0, Lng: 0, RadiusMeters: 500})

	require.Len(t, result.Objects, 1)
	assert.Equal(t, ProvenanceCoordinates, result.Provenance)
	assert.Equal(t, 1, store.nearbyCalls)
	assert.Equal(t, 1, store.coordCalls)
	assert.Equal(t, 0, store.recentCalls)
}

func TestNearbyFallsBackOnEmpty(t *testing.T) {
	store := &fakeStore{
		nearbyObjects: []db.RetrievedObject{},
		coordObjects:  []db.RetrievedObject{},
		recentObjects: []db.RetrievedObject{obj("latest")},
	}
	resolver := NewNearbyResolver(store)

	result := resolver.Resolve(context.Background(), NearbyQuery{RadiusMeters: 500})

	require.Len(t, result.Objects, 1)
	assert.Equal(t, ProvenanceRecent, result.Provenance)
}

func TestNearbyAllStrategiesFail(t *testing.T) {
	store := &fakeStore{
		nearbyErr: errors.New("down"),
		coordErr:  errors.New("down"),
		recentErr: errors.New("down"),
	}
	resolver := NewNearbyResolver(store)

	result := resolver.Resolve(context.Background(), NearbyQuery{RadiusMeters: 500})

	assert.NotNil(t, result.Objects)
	assert.Empty(t, result.Objects)
	assert.Equal(t, Provenance(""), result.Provenance)
}

// fakeEncoder implements vision.Encoder for similarity tests.
type fakeEncoder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEncoder) Encode(ctx context.Context, imageB64 string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

func (f *fakeEncoder) Model() string  { return "fake" }
func (f *fakeEncoder) Dimension() int { return len(f.vector) }

func TestSimilarHappyPath(t *testing.T) {
	store := &fakeStore{vectorObjects: []db.RetrievedObject{obj("twin")}}
	encoder := &fakeEncoder{vector: []float32{0.1, 0.2, 0.3}}
	resolver := NewSimilarResolver(store, encoder)

	result, err := resolver.Resolve(context.Background(), "aW1hZ2U=")

	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "twin", result.Matches[0].Name)
	assert.Empty(t, result.QueryError)
	assert.Equal(t, 1, store.vectorCalls)
}

func TestSimilarEmbeddingFailureSurfaces(t *testing.T) {
	store := &fakeStore{}
	encoder := &fakeEncoder{err: errors.New("model crashed")}
	resolver := NewSimilarResolver(store, encoder)

	_, err := resolver.Resolve(context.Background(), "aW1hZ2U=")

	require.Error(t, err, "embedding failure must not silently yield an empty match list")
	assert.Equal(t, 0, store.vectorCalls)
}

func TestSimilarNoEncoder(t *testing.T) {
	resolver := NewSimilarResolver(&fakeStore{}, nil)

	_, err := resolver.Resolve(context.Background(), "aW1hZ2U=")

	require.Error(t, err)
}

func TestSimilarQueryErrorAnnotated(t *testing.T) {
	store := &fakeStore{vectorErr: errors.New("index missing")}
	encoder := &fakeEncoder{vector: []float32{0.5}}
	resolver := NewSimilarResolver(store, encoder)

	result, err := resolver.Resolve(context.Background(), "aW1hZ2U=")

	require.NoError(t, err, "store-level failure degrades, it does not raise")
	assert.Empty(t, result.Matches)
	assert.Contains(t, result.QueryError, "index missing")
}
