package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Mission states. A mission is created active and completes exactly once.
const (
	MissionActive    = "active"
	MissionCompleted = "completed"
)

// Mission groups captured objects under one exploration run.
type Mission struct {
	ID              surrealmodels.RecordID `json:"id"`
	Code            string                 `json:"code"`
	Title           string                 `json:"title"`
	Zone            string                 `json:"zone"`
	ClimateSnapshot map[string]any         `json:"climate_snapshot"`
	State           string                 `json:"state"`
	StartedAt       time.Time              `json:"started_at"`
	EndedAt         *time.Time             `json:"ended_at,omitempty"`
}

// MissionInput is the caller-supplied shape for starting a mission.
type MissionInput struct {
	Title           string         `json:"title"`
	Zone            string         `json:"zone"`
	ClimateSnapshot map[string]any `json:"climate"`
}
