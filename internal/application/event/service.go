package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/domain"
	"github.com/eventlane/eventlane/internal/security"
)

// authorize is the single ownership gate for every operation in this
// package: admins pass, everyone else must own the resource.
func authorize(actor security.Principal, ownerID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.ID == ownerID {
		return nil
	}
	return domain.ErrForbidden("not allowed")
}

type Service struct {
	repo  EventRepo
	dir   Directory
	views ViewCounter
	cache Cache
	aud   *audit.Logger
	clock Clock

	ttlDetails time.Duration
}

func New(repo EventRepo, dir Directory, views ViewCounter, cache Cache, aud *audit.Logger, clock Clock, ttlDetails time.Duration) *Service {
	if ttlDetails == 0 {
		ttlDetails = 5 * time.Minute
	}
	return &Service{
		repo:       repo,
		dir:        dir,
		views:      views,
		cache:      cache,
		aud:        aud,
		clock:      clock,
		ttlDetails: ttlDetails,
	}
}
