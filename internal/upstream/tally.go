package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/juju/errors"

	"access-console/internal/models"
)

// Backend endpoints.
const (
	PathRoles              = "/api/access-control/roles/all"
	PathUserConnections    = "/api/tally/user-connections"
	PathInternalUsers      = "/api/tally/internal-users"
	PathLedgerGroups       = "/api/tally/ledgergroups"
	PathStockGroups        = "/api/tally/stockgroups"
	PathStockCategories    = "/api/tally/stockcategories"
	PathUserGroupsGet      = "/api/tally/user-groups/get"
	PathUserGroups         = "/api/tally/user-groups"
	PathShareAccess        = "/api/tally/ledger-shareaccess"
	PathShareAccessSubmit  = "/api/tally/ledger-shareaccess-acc"
	PathInternalUserAccess = "/api/tally/internal-user-access"
	PathInternalUserUpdate = "/api/tally/internal-user-access/update"
	PathInternalUserRemove = "/api/tally/internal-user-access/remove-all"
	PathBankDetails        = "/api/subscriptions/admin/bank-details"
)

var groupPaths = map[models.GroupKind]string{
	models.LedgerGroups:    PathLedgerGroups,
	models.StockGroups:     PathStockGroups,
	models.StockCategories: PathStockCategories,
}

// Roles lists every role.
func (c *Client) Roles(ctx context.Context, token string) ([]models.Role, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, token, PathRoles, &raw); err != nil {
		return nil, err
	}
	var roles []models.Role
	if err := decodeList(raw, &roles, "roles"); err != nil {
		return nil, responseError(http.MethodGet, PathRoles, err)
	}
	return roles, nil
}

// UserConnections lists the caller's company connections.
func (c *Client) UserConnections(ctx context.Context, token string) ([]models.Connection, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, token, PathUserConnections, &raw); err != nil {
		return nil, err
	}
	conns, err := NormalizeConnections(raw)
	if err != nil {
		return nil, responseError(http.MethodGet, PathUserConnections, err)
	}
	return conns, nil
}

// InternalUsers lists the users managed by the caller.
func (c *Client) InternalUsers(ctx context.Context, token string) ([]models.InternalUser, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, token, PathInternalUsers, &raw); err != nil {
		return nil, err
	}
	var users []models.InternalUser
	if err := decodeList(raw, &users, "users"); err != nil {
		return nil, responseError(http.MethodGet, PathInternalUsers, err)
	}
	return users, nil
}

// Groups lists one kind of classification for a company.
func (c *Client) Groups(ctx context.Context, token string, kind models.GroupKind, company models.CompanyRef) ([]models.GroupItem, error) {
	path, ok := groupPaths[kind]
	if !ok {
		return nil, errors.NotValidf("group kind %q", kind)
	}
	var raw json.RawMessage
	if err := c.Post(ctx, token, path, company, &raw); err != nil {
		return nil, err
	}
	var groups []tallyGroup
	if err := decodeList(raw, &groups, string(kind), "data", "groups"); err != nil {
		return nil, responseError(http.MethodPost, path, err)
	}
	items := make([]models.GroupItem, 0, len(groups))
	for _, g := range groups {
		items = append(items, g.item())
	}
	return items, nil
}

// UserGroups fetches the stored group selection for a user and company.
func (c *Client) UserGroups(ctx context.Context, token string, q models.UserGroupsQuery) (models.UserGroups, error) {
	var resp struct {
		models.UserGroups
		Data *models.UserGroups `json:"data"`
	}
	if err := c.Post(ctx, token, PathUserGroupsGet, q, &resp); err != nil {
		return models.UserGroups{}, err
	}
	if resp.Data != nil {
		return *resp.Data, nil
	}
	return resp.UserGroups, nil
}

// SaveUserGroups stores a group selection.
func (c *Client) SaveUserGroups(ctx context.Context, token string, req models.SaveUserGroupsRequest) error {
	return c.Post(ctx, token, PathUserGroups, req, nil)
}

// ShareAccessCandidates lists the emails that can be granted access to a
// company along with their current grant.
func (c *Client) ShareAccessCandidates(ctx context.Context, token string, company models.CompanyRef) ([]models.EmailGrant, error) {
	var raw json.RawMessage
	if err := c.Post(ctx, token, PathShareAccess, company, &raw); err != nil {
		return nil, err
	}
	var grants []models.EmailGrant
	if err := decodeList(raw, &grants, "data", "emails", "users"); err != nil {
		return nil, responseError(http.MethodPost, PathShareAccess, err)
	}
	return grants, nil
}

// SubmitShareAccess sends the full selection for a company.
func (c *Client) SubmitShareAccess(ctx context.Context, token string, req models.ShareAccessRequest) (models.ShareAccessResult, error) {
	var res models.ShareAccessResult
	if err := c.Post(ctx, token, PathShareAccessSubmit, req, &res); err != nil {
		return models.ShareAccessResult{}, err
	}
	return res, nil
}

// CreateInternalUserAccess creates a user with company access.
func (c *Client) CreateInternalUserAccess(ctx context.Context, token string, req models.CreateAccessRequest) error {
	return c.Post(ctx, token, PathInternalUserAccess, req, nil)
}

// UpdateInternalUserAccess replaces a user's company list.
func (c *Client) UpdateInternalUserAccess(ctx context.Context, token string, req models.UpdateAccessRequest) error {
	return c.Post(ctx, token, PathInternalUserUpdate, req, nil)
}

// RemoveAllInternalUserAccess revokes every company of a user.
func (c *Client) RemoveAllInternalUserAccess(ctx context.Context, token, email string) error {
	return c.Post(ctx, token, PathInternalUserRemove, models.RemoveAccessRequest{Email: email}, nil)
}

// BankDetails lists the bank records.
func (c *Client) BankDetails(ctx context.Context, token string) ([]models.BankDetails, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, token, PathBankDetails, &raw); err != nil {
		return nil, err
	}
	var details []models.BankDetails
	if err := decodeList(raw, &details, "bankDetails", "data"); err != nil {
		return nil, responseError(http.MethodGet, PathBankDetails, err)
	}
	return details, nil
}

// CreateBankDetails adds a bank record.
func (c *Client) CreateBankDetails(ctx context.Context, token string, b models.BankDetails) error {
	return c.Post(ctx, token, PathBankDetails, b, nil)
}

// UpdateBankDetails replaces a bank record.
func (c *Client) UpdateBankDetails(ctx context.Context, token, id string, b models.BankDetails) error {
	return c.Put(ctx, token, PathBankDetails+"/"+url.PathEscape(id), b, nil)
}
