package services

import (
	"context"
	"fmt"

	"github.com/juju/errors"

	"access-console/internal/models"
	"access-console/internal/session"
	"access-console/internal/upstream"
)

// ShareAccessService runs the share-access workflow: pick a company, tick
// the emails that should have access and submit the whole selection.
type ShareAccessService struct {
	Client      *upstream.Client
	Store       session.Store
	Connections *ConnectionService
	Audit       AuditRecorder
}

func NewShareAccessService(client *upstream.Client, store session.Store, conns *ConnectionService, audit AuditRecorder) *ShareAccessService {
	return &ShareAccessService{Client: client, Store: store, Connections: conns, Audit: audit}
}

func errNoShareDraft() error {
	return errors.NewNotFound(nil, "No company selected for sharing")
}

// Open loads the share-access table of a company and starts a draft with
// the currently active emails ticked.
func (s *ShareAccessService) Open(ctx context.Context, sess *models.Session, key models.CompanyKey) (*models.ShareDraft, error) {
	company, err := s.Connections.Find(ctx, sess, key)
	if err != nil {
		return nil, errors.Trace(err)
	}
	draft, err := s.load(ctx, sess, company)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := session.ShareAccessDraft.Set(ctx, s.Store, sess.ID, *draft); err != nil {
		return nil, errors.Trace(err)
	}
	return draft, nil
}

func (s *ShareAccessService) load(ctx context.Context, sess *models.Session, company models.Connection) (*models.ShareDraft, error) {
	grants, err := s.Client.ShareAccessCandidates(ctx, sess.Token, company.Ref())
	if err != nil {
		return nil, errors.Annotate(err, "Error fetching users")
	}
	if grants == nil {
		grants = []models.EmailGrant{}
	}
	return models.NewShareDraft(company, grants), nil
}

// Draft returns the open draft.
func (s *ShareAccessService) Draft(ctx context.Context, sess *models.Session) (*models.ShareDraft, error) {
	draft, ok, err := session.ShareAccessDraft.Lookup(ctx, s.Store, sess.ID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !ok {
		return nil, errNoShareDraft()
	}
	return &draft, nil
}

func (s *ShareAccessService) update(ctx context.Context, sess *models.Session, fn func(*models.ShareDraft) error) (*models.ShareDraft, error) {
	draft, err := s.Draft(ctx, sess)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := fn(draft); err != nil {
		return nil, errors.Trace(err)
	}
	if err := session.ShareAccessDraft.Set(ctx, s.Store, sess.ID, *draft); err != nil {
		return nil, errors.Trace(err)
	}
	return draft, nil
}

// Toggle ticks or unticks an email.
func (s *ShareAccessService) Toggle(ctx context.Context, sess *models.Session, email string) (*models.ShareDraft, error) {
	return s.update(ctx, sess, func(d *models.ShareDraft) error { return d.Toggle(email) })
}

// SelectAll ticks every email, or none when all are ticked.
func (s *ShareAccessService) SelectAll(ctx context.Context, sess *models.Session) (*models.ShareDraft, error) {
	return s.update(ctx, sess, func(d *models.ShareDraft) error {
		d.ToggleSelectAll()
		return nil
	})
}

// Submit sends the ticked emails with role for those that have none yet,
// then reloads the table. The upstream decides what to activate and what to
// deactivate; nothing is merged locally.
func (s *ShareAccessService) Submit(ctx context.Context, sess *models.Session, role models.RoleID) (*models.ShareSummary, *models.ShareDraft, error) {
	draft, err := s.Draft(ctx, sess)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if role.IsZero() {
		return nil, nil, errors.NewNotValid(nil, "Please select a role")
	}

	req := models.ShareAccessRequest{
		CompanyRef: draft.Company.Ref(),
		Emails:     models.ReconcileGrants(draft.Selected, role, draft.Grants),
	}
	res, err := s.Client.SubmitShareAccess(ctx, sess.Token, req)
	if err != nil {
		return nil, nil, errors.Annotate(err, "Error sharing access")
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "Failed to share access"
		}
		return nil, nil, &upstream.Error{Method: "POST", Path: upstream.PathShareAccessSubmit, Status: 200, Message: msg}
	}

	summary := summarize(res)
	audit(ctx, s.Audit, sess, models.ActionShareAccess, "company", draft.Company.Key().String(), draft.Company.GUID,
		fmt.Sprintf("Shared %s with %d email(s): %s", draft.Company.Company, len(req.Emails), summary.Message))

	fresh, err := s.load(ctx, sess, draft.Company)
	if err != nil {
		// The submission went through; keep the old table and say so.
		summary.RefreshError = err.Error()
		return summary, draft, nil
	}
	if err := session.ShareAccessDraft.Set(ctx, s.Store, sess.ID, *fresh); err != nil {
		return nil, nil, errors.Trace(err)
	}
	return summary, fresh, nil
}

func summarize(res models.ShareAccessResult) *models.ShareSummary {
	summary := &models.ShareSummary{Granted: res.Granted(), Deactivated: res.Deactivated}
	if summary.Granted == 0 && summary.Deactivated == 0 {
		summary.NoChanges = true
		summary.Message = "No changes were made"
		return summary
	}
	summary.Message = fmt.Sprintf("Access granted to %d user(s), removed from %d user(s)", summary.Granted, summary.Deactivated)
	return summary
}

// Close discards the draft.
func (s *ShareAccessService) Close(ctx context.Context, sess *models.Session) error {
	return errors.Trace(session.ShareAccessDraft.Delete(ctx, s.Store, sess.ID))
}
