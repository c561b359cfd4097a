// Package participation allocates event capacity to participation requests.
package participation

import (
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
	stores Stores
	dir    Directory
	aud    *audit.Logger
	clock  Clock
}

func New(stores Stores, dir Directory, aud *audit.Logger, clock Clock) *Service {
	return &Service{
		stores: stores,
		dir:    dir,
		aud:    aud,
		clock:  clock,
	}
}
