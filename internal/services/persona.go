package services

import (
	"context"
	"errors"

	"roleplaychat/internal/store"
	"roleplaychat/pkg/prompt"
)

// DefaultUserName is used when a user has no active persona.
const DefaultUserName = "User"

// PersonaService resolves the acting user's display identity from the
// personas table, falling back to a default profile.
type PersonaService struct {
	db *store.DB
}

func NewPersonaService(db *store.DB) *PersonaService {
	return &PersonaService{db: db}
}

func (s *PersonaService) ActiveUserInfo(ctx context.Context, userID int64) (prompt.PersonaInfo, error) {
	p, err := s.db.ActivePersona(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return prompt.PersonaInfo{Name: DefaultUserName}, nil
	}
	if err != nil {
		return prompt.PersonaInfo{}, err
	}
	name := p.Name
	if name == "" {
		name = DefaultUserName
	}
	return prompt.PersonaInfo{
		Name:        name,
		Description: p.Description,
		AvatarRef:   p.AvatarRef,
	}, nil
}
