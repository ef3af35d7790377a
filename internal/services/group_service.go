package services

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"golang.org/x/sync/errgroup"

	"access-console/internal/models"
	"access-console/internal/session"
	"access-console/internal/upstream"
)

// GroupService runs the group-assignment modal: ledger groups, stock groups
// and stock categories a user is scoped to within one company.
type GroupService struct {
	Client      *upstream.Client
	Store       session.Store
	Connections *ConnectionService
	Audit       AuditRecorder
}

func NewGroupService(client *upstream.Client, store session.Store, conns *ConnectionService, audit AuditRecorder) *GroupService {
	return &GroupService{Client: client, Store: store, Connections: conns, Audit: audit}
}

// Open loads the three lists and the stored selection in parallel. Any
// failure fails the whole open.
func (s *GroupService) Open(ctx context.Context, sess *models.Session, userID models.UserID, key models.CompanyKey) (*models.GroupDraft, error) {
	if userID == "" {
		return nil, errors.NewNotValid(nil, "User is required")
	}
	company, err := s.Connections.Find(ctx, sess, key)
	if err != nil {
		return nil, errors.Trace(err)
	}

	lists := make(map[models.GroupKind][]models.GroupItem, len(models.GroupKinds))
	results := make([][]models.GroupItem, len(models.GroupKinds))
	var existing models.UserGroups

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range models.GroupKinds {
		i, kind := i, kind
		g.Go(func() error {
			items, err := s.Client.Groups(gctx, sess.Token, kind, company.Ref())
			if err != nil {
				return errors.Annotatef(err, "Error fetching %s", kindLabel(kind))
			}
			results[i] = items
			return nil
		})
	}
	g.Go(func() error {
		var err error
		existing, err = s.Client.UserGroups(gctx, sess.Token, models.UserGroupsQuery{UserID: userID, CompanyRef: company.Ref()})
		return errors.Annotate(err, "Error fetching assigned groups")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, kind := range models.GroupKinds {
		lists[kind] = results[i]
	}

	draft := models.NewGroupDraft(userID, company, lists, existing)
	if err := session.GroupDraft.Set(ctx, s.Store, sess.ID, *draft); err != nil {
		return nil, errors.Trace(err)
	}
	return draft, nil
}

func kindLabel(kind models.GroupKind) string {
	switch kind {
	case models.LedgerGroups:
		return "ledger groups"
	case models.StockGroups:
		return "stock groups"
	case models.StockCategories:
		return "stock categories"
	}
	return string(kind)
}

// Draft returns the open modal for userID.
func (s *GroupService) Draft(ctx context.Context, sess *models.Session, userID models.UserID) (*models.GroupDraft, error) {
	draft, ok, err := session.GroupDraft.Lookup(ctx, s.Store, sess.ID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !ok || draft.UserID != userID {
		return nil, errors.NewNotFound(nil, "No group assignment open for this user")
	}
	return &draft, nil
}

// Toggle selects or deselects one item of a tab.
func (s *GroupService) Toggle(ctx context.Context, sess *models.Session, userID models.UserID, kind models.GroupKind, id models.MasterID) (*models.GroupDraft, error) {
	draft, err := s.Draft(ctx, sess, userID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := draft.Toggle(kind, id); err != nil {
		return nil, err
	}
	if err := session.GroupDraft.Set(ctx, s.Store, sess.ID, *draft); err != nil {
		return nil, errors.Trace(err)
	}
	return draft, nil
}

// Filter returns a tab's items matching filter. Filters are per tab and not
// stored.
func (s *GroupService) Filter(ctx context.Context, sess *models.Session, userID models.UserID, kind models.GroupKind, filter string) ([]models.GroupItem, error) {
	draft, err := s.Draft(ctx, sess, userID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	items, err := draft.Filter(kind, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.GroupItem{}
	}
	return items, nil
}

// Save stores the selection as {name, masterid} pairs.
func (s *GroupService) Save(ctx context.Context, sess *models.Session, userID models.UserID) error {
	draft, err := s.Draft(ctx, sess, userID)
	if err != nil {
		return errors.Trace(err)
	}
	req, dropped := draft.Payload()
	if len(dropped) > 0 {
		logger.Warningf("[Groups] Dropping %d selected id(s) no longer listed for user %s: %v", len(dropped), userID, dropped)
	}
	if err := s.Client.SaveUserGroups(ctx, sess.Token, req); err != nil {
		return errors.Annotate(err, "Error saving groups")
	}
	if err := session.GroupDraft.Delete(ctx, s.Store, sess.ID); err != nil {
		logger.Warningf("[Groups] Failed to drop group draft for %s: %v", sess.ID, err)
	}
	audit(ctx, s.Audit, sess, models.ActionGroupAssignment, "user", string(userID), draft.Company.GUID,
		fmt.Sprintf("Assigned %d ledger group(s), %d stock group(s), %d stock category(ies) in %s",
			len(req.LedgerGroups), len(req.StockGroups), len(req.StockCategories), draft.Company.Company))
	return nil
}
