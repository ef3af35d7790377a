package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/juju/errors"
	"golang.org/x/sync/errgroup"

	"access-console/internal/models"
	"access-console/internal/session"
	"access-console/internal/upstream"
)

// AccessService manages internal users and their per-company access.
type AccessService struct {
	Client      *upstream.Client
	Store       session.Store
	Connections *ConnectionService
	Roles       *RoleService
	Audit       AuditRecorder
}

func NewAccessService(client *upstream.Client, store session.Store, conns *ConnectionService, roles *RoleService, audit AuditRecorder) *AccessService {
	return &AccessService{Client: client, Store: store, Connections: conns, Roles: roles, Audit: audit}
}

// List returns every internal user with role and external flag collapsed to
// one value each.
func (s *AccessService) List(ctx context.Context, sess *models.Session) ([]models.UserRow, error) {
	var (
		users []models.InternalUser
		names models.RoleNames
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.Client.InternalUsers(gctx, sess.Token)
		return errors.Annotate(err, "Error fetching users")
	})
	g.Go(func() error {
		var err error
		names, err = s.Roles.Names(gctx, sess)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]models.UserRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, models.UserRow{InternalUser: u, Consolidated: u.Consolidate(names)})
	}
	return rows, nil
}

func (s *AccessService) findUser(ctx context.Context, sess *models.Session, email string) (models.InternalUser, error) {
	users, err := s.Client.InternalUsers(ctx, sess.Token)
	if err != nil {
		return models.InternalUser{}, errors.Annotate(err, "Error fetching users")
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.InternalUser{}, errors.NewNotFound(nil, fmt.Sprintf("User %s not found", email))
}

// ValidateCreate checks a new user before anything is sent.
func ValidateCreate(req *models.CreateAccessRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.MobileNo = strings.TrimSpace(req.MobileNo)
	if req.Name == "" {
		return errors.NewNotValid(nil, "Name is required")
	}
	if req.Email == "" {
		return errors.NewNotValid(nil, "Email is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return errors.NewNotValid(nil, "Please enter a valid email address")
	}
	return models.RequireRoles(req.Companies)
}

// Create adds an internal user with access to the given companies.
func (s *AccessService) Create(ctx context.Context, sess *models.Session, req models.CreateAccessRequest) error {
	if err := ValidateCreate(&req); err != nil {
		return err
	}
	if err := s.Client.CreateInternalUserAccess(ctx, sess.Token, req); err != nil {
		return errors.Annotate(err, "Error creating user")
	}
	audit(ctx, s.Audit, sess, models.ActionAccessCreate, "user", req.Email, "",
		fmt.Sprintf("Created %s with access to %d company(ies)", req.Email, len(req.Companies)))
	return nil
}

// Remove revokes all of a user's company access.
func (s *AccessService) Remove(ctx context.Context, sess *models.Session, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.NewNotValid(nil, "Email is required")
	}
	if err := s.Client.RemoveAllInternalUserAccess(ctx, sess.Token, email); err != nil {
		return errors.Annotate(err, "Error removing access")
	}
	if draft, ok, err := session.AccessEditDraft.Lookup(ctx, s.Store, sess.ID); err == nil && ok && strings.EqualFold(draft.Email, email) {
		_ = session.AccessEditDraft.Delete(ctx, s.Store, sess.ID)
	}
	audit(ctx, s.Audit, sess, models.ActionAccessRemove, "user", email, "", "Removed all company access")
	return nil
}

// OpenEdit starts editing a user's access over the session's connections.
func (s *AccessService) OpenEdit(ctx context.Context, sess *models.Session, email string) (*models.AccessDraft, error) {
	user, err := s.findUser(ctx, sess, email)
	if err != nil {
		return nil, errors.Trace(err)
	}
	conns, err := s.Connections.List(ctx, sess)
	if err != nil {
		return nil, errors.Trace(err)
	}
	draft := models.NewAccessDraft(user, conns)
	if err := session.AccessEditDraft.Set(ctx, s.Store, sess.ID, *draft); err != nil {
		return nil, errors.Trace(err)
	}
	return draft, nil
}

// Draft returns the open edit for email.
func (s *AccessService) Draft(ctx context.Context, sess *models.Session, email string) (*models.AccessDraft, error) {
	draft, ok, err := session.AccessEditDraft.Lookup(ctx, s.Store, sess.ID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !ok || !strings.EqualFold(draft.Email, email) {
		return nil, errors.NewNotFound(nil, fmt.Sprintf("No open edit for %s", email))
	}
	return &draft, nil
}

func (s *AccessService) updateDraft(ctx context.Context, sess *models.Session, email string, fn func(*models.AccessDraft) error) (*models.AccessDraft, error) {
	draft, err := s.Draft(ctx, sess, email)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := fn(draft); err != nil {
		return nil, err
	}
	if err := session.AccessEditDraft.Set(ctx, s.Store, sess.ID, *draft); err != nil {
		return nil, errors.Trace(err)
	}
	return draft, nil
}

// ToggleCompany checks or unchecks a company in the open edit.
func (s *AccessService) ToggleCompany(ctx context.Context, sess *models.Session, email, key string) (*models.AccessDraft, error) {
	return s.updateDraft(ctx, sess, email, func(d *models.AccessDraft) error { return d.Toggle(key) })
}

// SelectAll toggles every visible company.
func (s *AccessService) SelectAll(ctx context.Context, sess *models.Session, email string) (*models.AccessDraft, error) {
	return s.updateDraft(ctx, sess, email, func(d *models.AccessDraft) error {
		d.ToggleSelectAll()
		return nil
	})
}

// SetFilter narrows the visible companies.
func (s *AccessService) SetFilter(ctx context.Context, sess *models.Session, email, filter string) (*models.AccessDraft, error) {
	return s.updateDraft(ctx, sess, email, func(d *models.AccessDraft) error {
		d.SetFilter(filter)
		return nil
	})
}

// SetSettings changes a checked company's role and external flag.
func (s *AccessService) SetSettings(ctx context.Context, sess *models.Session, email, key string, settings models.CompanySettings) (*models.AccessDraft, error) {
	return s.updateDraft(ctx, sess, email, func(d *models.AccessDraft) error { return d.SetSettings(key, settings) })
}

// SaveEdit submits exactly the checked companies. The draft is kept when
// validation or the upstream call fails.
func (s *AccessService) SaveEdit(ctx context.Context, sess *models.Session, email string) error {
	draft, err := s.Draft(ctx, sess, email)
	if err != nil {
		return errors.Trace(err)
	}
	if err := draft.Validate(); err != nil {
		return err
	}
	req := models.UpdateAccessRequest{Email: draft.Email, Companies: draft.Companies()}
	if err := s.Client.UpdateInternalUserAccess(ctx, sess.Token, req); err != nil {
		return errors.Annotate(err, "Error updating access")
	}
	if err := session.AccessEditDraft.Delete(ctx, s.Store, sess.ID); err != nil {
		logger.Warningf("[Access] Failed to drop edit draft for %s: %v", sess.ID, err)
	}
	audit(ctx, s.Audit, sess, models.ActionAccessUpdate, "user", draft.Email, "",
		fmt.Sprintf("Updated access to %d company(ies)", len(req.Companies)))
	return nil
}
