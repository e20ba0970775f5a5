// Package service orchestrates the capture pipeline: ingestion, chat and
// mission bookkeeping on top of the store and AI boundaries.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avaldes/marsight/internal/db"
	"github.com/avaldes/marsight/internal/imaging"
	"github.com/avaldes/marsight/internal/models"
	"github.com/avaldes/marsight/internal/vision"
)

const (
	// minImagePayload is the minimum base64 length worth embedding or storing.
	minImagePayload = 100

	// maxStoredImage caps the persisted image payload to bound record size.
	maxStoredImage = 500_000
)

// ObjectStore is the persistence surface the object service needs.
type ObjectStore interface {
	CreateObject(ctx context.Context, obj db.NewObject) (*models.CapturedObject, error)
	GetObject(ctx context.Context, id string) (*models.CapturedObject, error)
	UpdateObject(ctx context.Context, id string, upd models.CapturedObjectUpdate) error
	DeleteObject(ctx context.Context, id string) error
}

// ObjectService coordinates object ingestion: image post-processing,
// best-effort embedding generation, metadata merge and the store write.
type ObjectService struct {
	store   ObjectStore
	encoder vision.Encoder
}

// NewObjectService creates the service. encoder may be nil; ingestion then
// simply skips embedding generation.
func NewObjectService(store ObjectStore, encoder vision.Encoder) *ObjectService {
	return &ObjectService{store: store, encoder: encoder}
}

// Ingest processes and persists one captured object. Every step before the
// store write is best-effort: a failed crop keeps the original image, a
// failed embedding is omitted. Only the persistence write can fail.
func (s *ObjectService) Ingest(ctx context.Context, input models.CapturedObjectInput) (*models.CapturedObject, error) {
	rawPayload := imaging.StripDataURI(input.ImageBase64)
	hasImage := len(rawPayload) > minImagePayload

	// Embedding from the original image, before any crop. Failure here is
	// logged and the vector omitted; it must never block ingestion.
	var embedding []float32
	if hasImage && s.encoder != nil {
		vec, err := s.encoder.Encode(ctx, input.ImageBase64)
		if err != nil {
			slog.Warn("embedding generation failed, ingesting without vector",
				"object", input.Name, "error", err)
		} else {
			embedding = vec
		}
	}

	// Stored image: cropped when a bbox is present, truncated to cap.
	var storedImage string
	if hasImage {
		storedImage = input.ImageBase64
		if len(input.BBox) > 0 {
			storedImage = imaging.Crop(input.ImageBase64, input.BBox)
		}
		if len(storedImage) > maxStoredImage {
			storedImage = storedImage[:maxStoredImage]
		}
	}

	// Merge metadata: caller keys verbatim, then the system fields.
	metadata := make(map[string]any, len(input.Metadata)+5)
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	metadata["source"] = input.Source
	metadata["confidence"] = input.Confidence
	metadata["heading"] = input.Heading
	metadata["timestamp"] = input.Timestamp
	if storedImage != "" {
		metadata["image_base64"] = storedImage
	}

	description := ""
	if d, ok := input.Metadata["description"].(string); ok {
		description = d
	}

	// Missing location falls back to (0, 0): a caller error, not a
	// pipeline error.
	position := models.NewGeoPoint(input.Location.Lat, input.Location.Lng)

	obj, err := s.store.CreateObject(ctx, db.NewObject{
		Name:        input.Name,
		ObjectClass: input.ObjectClass,
		Description: description,
		Confidence:  input.Confidence,
		Position:    position,
		Embedding:   embedding,
		Metadata:    metadata,
		MissionID:   input.MissionID,
	})
	if err != nil {
		return nil, fmt.Errorf("ingest %q: %w", input.Name, err)
	}

	return obj, nil
}

// Get fetches one object by id.
func (s *ObjectService) Get(ctx context.Context, id string) (*models.CapturedObject, error) {
	return s.store.GetObject(ctx, id)
}

// Update mutates an object's explicitly updatable fields.
func (s *ObjectService) Update(ctx context.Context, id string, upd models.CapturedObjectUpdate) error {
	return s.store.UpdateObject(ctx, id, upd)
}

// Delete removes an object.
func (s *ObjectService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteObject(ctx, id)
}
