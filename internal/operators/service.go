package operators

import (
	"context"
)

// Service encapsulates operator-account business logic.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims creates or updates an operator using OIDC claims. Returns
// nil when the claims carry no subject.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*Operator, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, nil
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return s.repo.UpsertBySub(ctx, &Operator{Sub: sub, Email: email, Name: name})
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*Operator, error) {
	return s.repo.GetBySub(ctx, sub)
}

// GrantRoles replaces an operator's role grants.
func (s *Service) GrantRoles(ctx context.Context, sub string, roles []string) error {
	return s.repo.SetRoles(ctx, sub, roles)
}

// RolesFor returns the server-side role grants for a subject, or nil when the
// operator is unknown.
func (s *Service) RolesFor(ctx context.Context, sub string) ([]string, error) {
	o, err := s.repo.GetBySub(ctx, sub)
	if err != nil || o == nil {
		return nil, err
	}
	return o.Roles, nil
}
