package service

import (
	"context"
	"fmt"

	"gatepass/internal/registration/models"
)

// IssueCode ensures the registration has a UID and returns the joined row
// the code payload builders need. Issuance rules are EnsureUID's.
func (s *Service) IssueCode(ctx context.Context, id models.RegistrationID) (*models.VerifiedRegistration, error) {
	uid, err := s.EnsureUID(ctx, id)
	if err != nil {
		return nil, err
	}

	found, err := s.store.FindByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load registration %d for code payload: %w", id, err)
	}
	return found, nil
}
