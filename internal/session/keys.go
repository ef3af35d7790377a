package session

import (
	"context"

	"github.com/juju/errors"

	"access-console/internal/models"
)

// Session entries. The names are shared with the browser client.
var (
	AllConnections            = NewKey[[]models.Connection]("allConnections")
	SelectedCompanyGUID       = NewKey[string]("selectedCompanyGuid")
	SelectedCompanyTallylocID = NewKey[models.TallylocID]("selectedCompanyTallylocId")
	Token                     = NewKey[string]("token")
	UserType                  = NewKey[string]("user_type")
	Name                      = NewKey[string]("name")
	Email                     = NewKey[string]("email")

	SelectedCompanyName        = NewKey[string]("selectedCompanyName")
	SelectedCompanyAccessType  = NewKey[string]("selectedCompanyAccessType")
	SelectedCompanyStatus      = NewKey[string]("selectedCompanyStatus")
	SelectedCompanyConnName    = NewKey[string]("selectedCompanyConnName")
	SelectedCompanySharedEmail = NewKey[string]("selectedCompanySharedEmail")

	ShareAccessDraft = NewKey[models.ShareDraft]("shareAccessDraft")
	AccessEditDraft  = NewKey[models.AccessDraft]("accessEditDraft")
	GroupDraft       = NewKey[models.GroupDraft]("groupDraft")
)

var selectedKeys = []string{
	SelectedCompanyGUID.Name(),
	SelectedCompanyTallylocID.Name(),
	SelectedCompanyName.Name(),
	SelectedCompanyAccessType.Name(),
	SelectedCompanyStatus.Name(),
	SelectedCompanyConnName.Name(),
	SelectedCompanySharedEmail.Name(),
}

// SaveProfile writes the login entries of a new session.
func SaveProfile(ctx context.Context, s Store, sess *models.Session) error {
	for _, kv := range []struct {
		key   Key[string]
		value string
	}{
		{Token, sess.Token},
		{UserType, sess.UserType},
		{Name, sess.Name},
		{Email, sess.Email},
	} {
		if err := kv.key.Set(ctx, s, sess.ID, kv.value); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// LoadProfile rebuilds a session from its login entries.
func LoadProfile(ctx context.Context, s Store, sessionID string) (*models.Session, error) {
	token, err := Token.Get(ctx, s, sessionID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	sess := &models.Session{ID: sessionID, Token: token}
	for _, kv := range []struct {
		key Key[string]
		dst *string
	}{
		{UserType, &sess.UserType},
		{Name, &sess.Name},
		{Email, &sess.Email},
	} {
		v, _, err := kv.key.Lookup(ctx, s, sessionID)
		if err != nil {
			return nil, errors.Trace(err)
		}
		*kv.dst = v
	}
	return sess, nil
}

// SelectCompany records the row the user clicked in the connections table.
func SelectCompany(ctx context.Context, s Store, sessionID string, c models.Connection) error {
	if err := SelectedCompanyGUID.Set(ctx, s, sessionID, c.GUID); err != nil {
		return errors.Trace(err)
	}
	if err := SelectedCompanyTallylocID.Set(ctx, s, sessionID, c.TallylocID); err != nil {
		return errors.Trace(err)
	}
	for _, kv := range []struct {
		key   Key[string]
		value string
	}{
		{SelectedCompanyName, c.Company},
		{SelectedCompanyAccessType, c.AccessType},
		{SelectedCompanyStatus, c.Status},
		{SelectedCompanyConnName, c.ConnName},
		{SelectedCompanySharedEmail, c.SharedEmail},
	} {
		if err := kv.key.Set(ctx, s, sessionID, kv.value); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// SelectedCompany returns the key of the clicked row, if any.
func SelectedCompany(ctx context.Context, s Store, sessionID string) (models.CompanyKey, bool, error) {
	guid, ok, err := SelectedCompanyGUID.Lookup(ctx, s, sessionID)
	if err != nil || !ok {
		return models.CompanyKey{}, false, errors.Trace(err)
	}
	loc, _, err := SelectedCompanyTallylocID.Lookup(ctx, s, sessionID)
	if err != nil {
		return models.CompanyKey{}, false, errors.Trace(err)
	}
	return models.CompanyKey{GUID: guid, TallylocID: loc}, true, nil
}

// ClearSelection forgets the clicked row.
func ClearSelection(ctx context.Context, s Store, sessionID string) error {
	return errors.Trace(s.Delete(ctx, sessionID, selectedKeys...))
}
