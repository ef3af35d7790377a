package models

import (
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// CompanySettings is the per-company access being edited.
type CompanySettings struct {
	RoleID         RoleID `json:"roleId"`
	IsExternalUser bool   `json:"isExternalUser"`
}

// CompanyOption is a company that can be checked in the access editor.
type CompanyOption struct {
	Key        string     `json:"key"`
	GUID       string     `json:"guid"`
	TallylocID TallylocID `json:"tallyloc_id"`
	Name       string     `json:"company"`
}

// MissingRoleError rejects a submission in which some selected companies have
// no role. It matches errors.NotValid.
type MissingRoleError struct {
	Companies []string
}

func (e *MissingRoleError) Error() string {
	return "Please select a role for: " + strings.Join(e.Companies, ", ")
}

// Is lets errors.Is(err, errors.NotValid) classify the error.
func (e *MissingRoleError) Is(target error) bool {
	return target == errors.NotValid
}

// RequireRoles checks that every company carries a role.
func RequireRoles(companies []CompanyAccess) error {
	if len(companies) == 0 {
		return errors.NewNotValid(nil, "Please select at least one company")
	}
	var missing []string
	for _, c := range companies {
		if c.RoleID.IsZero() {
			missing = append(missing, c.CompanyName)
		}
	}
	if len(missing) > 0 {
		return &MissingRoleError{Companies: missing}
	}
	return nil
}

// AccessDraft is the state of the edit-access modal for one user. Only
// checked companies have an entry in Settings; unchecking drops it.
type AccessDraft struct {
	Email    string                     `json:"email"`
	Options  []CompanyOption            `json:"options"`
	Settings map[string]CompanySettings `json:"settings"`
	Filter   string                     `json:"filter,omitempty"`

	// Restore is the selection that preceded the last select-all.
	Restore []string `json:"restore,omitempty"`
	// HasRestore distinguishes an empty Restore from none.
	HasRestore bool `json:"hasRestore,omitempty"`
}

// NewAccessDraft opens the editor for user over the available connections.
// Companies the user already has but which are not among conns are still
// offered so they can be kept or removed.
func NewAccessDraft(user InternalUser, conns []Connection) *AccessDraft {
	d := &AccessDraft{
		Email:    user.Email,
		Settings: make(map[string]CompanySettings),
	}
	seen := set.NewStrings()
	for _, c := range conns {
		key := c.Key().String()
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)
		d.Options = append(d.Options, CompanyOption{
			Key: key, GUID: c.GUID, TallylocID: c.TallylocID, Name: c.Company,
		})
	}
	for _, a := range user.Companies {
		key := a.Key().String()
		if !seen.Contains(key) {
			seen.Add(key)
			d.Options = append(d.Options, CompanyOption{
				Key: key, GUID: a.CompanyGUID, TallylocID: a.TallylocID, Name: a.CompanyName,
			})
		}
		d.Settings[key] = CompanySettings{RoleID: a.RoleID, IsExternalUser: a.IsExternalUser}
	}
	return d
}

func (d *AccessDraft) option(key string) (CompanyOption, bool) {
	for _, o := range d.Options {
		if o.Key == key {
			return o, true
		}
	}
	return CompanyOption{}, false
}

func (d *AccessDraft) ensure() {
	if d.Settings == nil {
		d.Settings = make(map[string]CompanySettings)
	}
}

func (d *AccessDraft) clearRestore() {
	d.Restore = nil
	d.HasRestore = false
}

// IsSelected reports whether the company is checked.
func (d *AccessDraft) IsSelected(key string) bool {
	_, ok := d.Settings[key]
	return ok
}

// Selected returns the checked company keys in display order.
func (d *AccessDraft) Selected() []string {
	var keys []string
	for _, o := range d.Options {
		if d.IsSelected(o.Key) {
			keys = append(keys, o.Key)
		}
	}
	return keys
}

// Toggle checks or unchecks a company. A newly checked company starts from
// default settings.
func (d *AccessDraft) Toggle(key string) error {
	if _, ok := d.option(key); !ok {
		return errors.NotFoundf("company %q", key)
	}
	d.ensure()
	d.clearRestore()
	if d.IsSelected(key) {
		delete(d.Settings, key)
		return nil
	}
	d.Settings[key] = CompanySettings{}
	return nil
}

// SetSettings updates the role and external flag of a checked company.
func (d *AccessDraft) SetSettings(key string, s CompanySettings) error {
	if !d.IsSelected(key) {
		return errors.NotValidf("settings for unselected company %q", key)
	}
	d.Settings[key] = s
	return nil
}

// SetFilter narrows the visible companies.
func (d *AccessDraft) SetFilter(filter string) {
	if filter != d.Filter {
		d.clearRestore()
	}
	d.Filter = filter
}

// Visible returns the options matching the current filter.
func (d *AccessDraft) Visible() []CompanyOption {
	q := strings.ToLower(strings.TrimSpace(d.Filter))
	if q == "" {
		return d.Options
	}
	var out []CompanyOption
	for _, o := range d.Options {
		if strings.Contains(strings.ToLower(o.Name), q) {
			out = append(out, o)
		}
	}
	return out
}

// ToggleSelectAll checks every visible company, or, when all of them are
// already checked, returns to the selection that preceded the previous
// select-all (unchecking all visible companies if there is none). Calling it
// twice leaves the selection as it was.
func (d *AccessDraft) ToggleSelectAll() {
	d.ensure()
	visible := d.Visible()

	allSelected := len(visible) > 0
	for _, o := range visible {
		if !d.IsSelected(o.Key) {
			allSelected = false
			break
		}
	}

	if !allSelected {
		d.Restore = d.Selected()
		d.HasRestore = true
		for _, o := range visible {
			if !d.IsSelected(o.Key) {
				d.Settings[o.Key] = CompanySettings{}
			}
		}
		return
	}

	if d.HasRestore {
		keep := set.NewStrings(d.Restore...)
		for _, o := range visible {
			if !keep.Contains(o.Key) {
				delete(d.Settings, o.Key)
			}
		}
		d.clearRestore()
		return
	}

	for _, o := range visible {
		delete(d.Settings, o.Key)
	}
}

// Companies returns the checked companies as they will be submitted.
func (d *AccessDraft) Companies() []CompanyAccess {
	var out []CompanyAccess
	for _, o := range d.Options {
		s, ok := d.Settings[o.Key]
		if !ok {
			continue
		}
		out = append(out, CompanyAccess{
			CompanyGUID:    o.GUID,
			CompanyName:    o.Name,
			TallylocID:     o.TallylocID,
			RoleID:         s.RoleID,
			IsExternalUser: s.IsExternalUser,
		})
	}
	return out
}

// Validate rejects a submission with no companies or with companies lacking
// a role.
func (d *AccessDraft) Validate() error {
	return RequireRoles(d.Companies())
}
