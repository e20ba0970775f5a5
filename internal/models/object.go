// Package models defines data structures for the Marsight exploration database.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// CapturedObject is a persisted field capture: image, position and AI outputs.
type CapturedObject struct {
	ID          surrealmodels.RecordID  `json:"id"`
	Name        string                  `json:"name"`
	ObjectClass string                  `json:"object_class"`
	Description string                  `json:"description"`
	Confidence  float64                 `json:"confidence"`
	Position    *GeoPoint               `json:"position,omitempty"`
	Embedding   []float32               `json:"embedding,omitempty"`
	Metadata    map[string]any          `json:"metadata"`
	MissionID   *surrealmodels.RecordID `json:"mission_id,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// CapturedObjectInput is the caller-supplied shape for ingestion.
// Metadata keys are preserved verbatim; the pipeline appends source,
// confidence, heading, timestamp and the processed image.
type CapturedObjectInput struct {
	Source      string         `json:"source"`
	ObjectClass string         `json:"object_class"`
	Name        string         `json:"name"`
	Confidence  float64        `json:"confidence"`
	Timestamp   string         `json:"timestamp"`
	Location    Location       `json:"location"`
	Heading     float64        `json:"heading"`
	ImageBase64 string         `json:"image_base64"`
	Metadata    map[string]any `json:"metadata"`
	MissionID   *string        `json:"mission_id,omitempty"`
	BBox        []float64      `json:"bbox,omitempty"`
}

// CapturedObjectUpdate carries the fields mutable after ingestion.
type CapturedObjectUpdate struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Subcategory *string `json:"subcategory,omitempty"`
	ObjectClass *string `json:"object_class,omitempty"`
}

// Location is a caller-supplied GPS coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeoPoint is a GeoJSON-style point as stored by SurrealDB.
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lng, lat]
}

// NewGeoPoint builds a GeoJSON point from latitude and longitude.
func NewGeoPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

// Lat returns the point's latitude.
func (p *GeoPoint) Lat() float64 { return p.Coordinates[1] }

// Lng returns the point's longitude.
func (p *GeoPoint) Lng() float64 { return p.Coordinates[0] }
