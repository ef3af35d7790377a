package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"access-console/internal/auth"
	"access-console/internal/cache"
	"access-console/internal/models"
	"access-console/internal/session"
)

// SessionService opens and closes console sessions.
type SessionService struct {
	Store session.Store
	JWT   *auth.JWTManager
}

func NewSessionService(store session.Store, jwtManager *auth.JWTManager) *SessionService {
	return &SessionService{Store: store, JWT: jwtManager}
}

// Create stores the upstream login of a user and returns a console token
// for it.
func (s *SessionService) Create(ctx context.Context, req models.CreateSessionRequest) (*models.SessionResponse, error) {
	req.Token = strings.TrimSpace(req.Token)
	req.Email = strings.TrimSpace(req.Email)
	if req.Token == "" {
		return nil, errors.NewNotValid(nil, "Token is required")
	}
	if req.Email == "" {
		return nil, errors.NewNotValid(nil, "Email is required")
	}

	sess := &models.Session{
		ID:       uuid.NewString(),
		Token:    req.Token,
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		UserType: strings.TrimSpace(req.UserType),
	}
	if err := session.SaveProfile(ctx, s.Store, sess); err != nil {
		return nil, errors.Annotate(err, "Error creating session")
	}
	token, err := s.JWT.GenerateToken(sess)
	if err != nil {
		_ = s.Store.Clear(ctx, sess.ID)
		return nil, errors.Trace(err)
	}
	logger.Infof("[Session] Created session %s for %s", sess.ID, sess.Email)
	return &models.SessionResponse{Token: token, Session: sess}, nil
}

// Delete ends a session and drops all of its state, including the role
// list cached for its upstream token.
func (s *SessionService) Delete(ctx context.Context, sess *models.Session) error {
	if err := s.Store.Clear(ctx, sess.ID); err != nil {
		return errors.Annotate(err, "Error ending session")
	}
	cache.InvalidateKeys(ctx, cache.RolesKey(sess.Token))
	logger.Infof("[Session] Ended session %s for %s", sess.ID, sess.Email)
	return nil
}
