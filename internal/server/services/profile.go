package services

import (
	"context"

	"github.com/violetear/api/internal/logging"
	"github.com/violetear/api/internal/server/models"
)

type ProfileService struct {
	deps Deps
	log  logging.Logger
}

func NewProfileService(d Deps) *ProfileService {
	d = d.withDefaults()
	return &ProfileService{deps: d, log: d.Logger.With("module", "profiles")}
}

// List returns the whole profile catalogue ordered by id.
func (s *ProfileService) List(ctx context.Context) ([]models.Profile, error) {
	profiles, err := s.deps.Repos.Profiles(s.deps.DB).List(ctx)
	if err != nil {
		return nil, internal(ctx, s.log, "list profiles", err)
	}
	return profiles, nil
}
