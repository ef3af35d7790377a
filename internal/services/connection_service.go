package services

import (
	"context"
	"reflect"

	"github.com/juju/errors"

	"access-console/internal/events"
	"access-console/internal/models"
	"access-console/internal/search"
	"access-console/internal/session"
	"access-console/internal/upstream"
)

// ConnectionService keeps each session's list of company connections.
type ConnectionService struct {
	Client *upstream.Client
	Store  session.Store
	Hub    *events.Hub
}

func NewConnectionService(client *upstream.Client, store session.Store, hub *events.Hub) *ConnectionService {
	return &ConnectionService{Client: client, Store: store, Hub: hub}
}

// List returns the cached connections, fetching them on first use.
func (s *ConnectionService) List(ctx context.Context, sess *models.Session) ([]models.Connection, error) {
	conns, ok, err := session.AllConnections.Lookup(ctx, s.Store, sess.ID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if ok {
		return conns, nil
	}
	return s.Refresh(ctx, sess)
}

// Refresh refetches the connections. When the list changed, a
// connectionsUpdated event tells the session's other views to reload.
func (s *ConnectionService) Refresh(ctx context.Context, sess *models.Session) ([]models.Connection, error) {
	conns, err := s.Client.UserConnections(ctx, sess.Token)
	if err != nil {
		return nil, errors.Annotate(err, "Error fetching connections")
	}
	previous, hadPrevious, err := session.AllConnections.Lookup(ctx, s.Store, sess.ID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := session.AllConnections.Set(ctx, s.Store, sess.ID, conns); err != nil {
		return nil, errors.Trace(err)
	}
	if hadPrevious && !reflect.DeepEqual(previous, conns) && s.Hub != nil {
		s.Hub.PublishConnectionsUpdated(sess.ID)
	}
	return conns, nil
}

// Search ranks the session's connections for query.
func (s *ConnectionService) Search(ctx context.Context, sess *models.Session, query string) ([]models.Connection, error) {
	conns, err := s.List(ctx, sess)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return search.Companies(conns, query), nil
}

// Find looks up one of the session's connections.
func (s *ConnectionService) Find(ctx context.Context, sess *models.Session, key models.CompanyKey) (models.Connection, error) {
	conns, err := s.List(ctx, sess)
	if err != nil {
		return models.Connection{}, errors.Trace(err)
	}
	c, ok := models.FindConnection(conns, key)
	if !ok {
		return models.Connection{}, errors.NewNotFound(nil, "Company not found among your connections")
	}
	return c, nil
}

// Select records a clicked row as the selected company.
func (s *ConnectionService) Select(ctx context.Context, sess *models.Session, key models.CompanyKey) (models.Connection, error) {
	c, err := s.Find(ctx, sess, key)
	if err != nil {
		return models.Connection{}, errors.Trace(err)
	}
	if err := session.SelectCompany(ctx, s.Store, sess.ID, c); err != nil {
		return models.Connection{}, errors.Trace(err)
	}
	return c, nil
}

// Selected returns the selected company, if one is set and still connected.
func (s *ConnectionService) Selected(ctx context.Context, sess *models.Session) (models.Connection, bool, error) {
	key, ok, err := session.SelectedCompany(ctx, s.Store, sess.ID)
	if err != nil || !ok {
		return models.Connection{}, false, errors.Trace(err)
	}
	conns, err := s.List(ctx, sess)
	if err != nil {
		return models.Connection{}, false, errors.Trace(err)
	}
	c, ok := models.FindConnection(conns, key)
	return c, ok, nil
}
