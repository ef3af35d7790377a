package services

import (
	"context"

	"github.com/juju/errors"

	"access-console/internal/cache"
	"access-console/internal/models"
	"access-console/internal/upstream"
)

// RoleService lists access-control roles. The list is shared briefly in
// Redis per upstream token.
type RoleService struct {
	Client *upstream.Client
}

func NewRoleService(client *upstream.Client) *RoleService {
	return &RoleService{Client: client}
}

func (s *RoleService) List(ctx context.Context, sess *models.Session) ([]models.Role, error) {
	key := cache.RolesKey(sess.Token)
	var roles []models.Role
	if cache.GetJSON(ctx, key, &roles) {
		return roles, nil
	}
	roles, err := s.Client.Roles(ctx, sess.Token)
	if err != nil {
		return nil, errors.Annotate(err, "Error fetching roles")
	}
	if roles == nil {
		roles = []models.Role{}
	}
	cache.SetJSON(ctx, key, roles, cache.RolesTTL)
	return roles, nil
}

// Names indexes the roles by id.
func (s *RoleService) Names(ctx context.Context, sess *models.Session) (models.RoleNames, error) {
	roles, err := s.List(ctx, sess)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return models.NewRoleNames(roles), nil
}
