package service

import (
	"context"
	"time"

	"github.com/avaldes/marsight/internal/models"
)

// MissionStore is the persistence surface the mission service needs.
type MissionStore interface {
	CreateMission(ctx context.Context, code string, input models.MissionInput) (*models.Mission, error)
	CompleteMission(ctx context.Context, id string) error
	ListMissions(ctx context.Context) ([]models.Mission, error)
	ListMissionObjects(ctx context.Context, missionID string) ([]models.CapturedObject, error)
	ListOrphanedObjects(ctx context.Context) ([]models.CapturedObject, error)
	DeleteMission(ctx context.Context, id string) error
}

// MissionService handles mission lifecycle around the store.
type MissionService struct {
	store MissionStore
	now   func() time.Time
}

// NewMissionService creates the service.
func NewMissionService(store MissionStore) *MissionService {
	return &MissionService{store: store, now: time.Now}
}

// Start creates an active mission with a generated code.
func (s *MissionService) Start(ctx context.Context, input models.MissionInput) (*models.Mission, error) {
	code := "MISION-" + s.now().Format("20060102-1504")
	return s.store.CreateMission(ctx, code, input)
}

// End completes a mission. Completing is a one-way, one-time transition;
// the store rejects a second completion.
func (s *MissionService) End(ctx context.Context, id string) error {
	return s.store.CompleteMission(ctx, id)
}

// List returns all missions, newest first.
func (s *MissionService) List(ctx context.Context) ([]models.Mission, error) {
	return s.store.ListMissions(ctx)
}

// Objects returns the objects owned by a mission.
func (s *MissionService) Objects(ctx context.Context, missionID string) ([]models.CapturedObject, error) {
	return s.store.ListMissionObjects(ctx, missionID)
}

// Orphaned returns objects without an owning mission.
func (s *MissionService) Orphaned(ctx context.Context) ([]models.CapturedObject, error) {
	return s.store.ListOrphanedObjects(ctx)
}

// Delete removes a mission and all objects it owns.
func (s *MissionService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteMission(ctx, id)
}
