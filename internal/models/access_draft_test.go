package models

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftConnections() []Connection {
	return []Connection{
		{GUID: "g1", TallylocID: "1", Company: "Acme Traders"},
		{GUID: "g2", TallylocID: "1", Company: "Bharat Steel"},
		{GUID: "g1", TallylocID: "2", Company: "Acme Traders (Pune)"},
	}
}

func key(guid, loc string) string {
	return CompanyKey{GUID: guid, TallylocID: TallylocID(loc)}.String()
}

func TestNewAccessDraftPreselectsUserCompanies(t *testing.T) {
	user := InternalUser{
		Email: "clerk@acme.in",
		Companies: []CompanyAccess{
			{CompanyGUID: "g2", TallylocID: "1", CompanyName: "Bharat Steel", RoleID: 3},
			{CompanyGUID: "g9", TallylocID: "5", CompanyName: "Old Co", RoleID: 2, IsExternalUser: true},
		},
	}
	d := NewAccessDraft(user, draftConnections())

	assert.Len(t, d.Options, 4)
	assert.Equal(t, []string{key("g2", "1"), key("g9", "5")}, d.Selected())
	assert.Equal(t, CompanySettings{RoleID: 2, IsExternalUser: true}, d.Settings[key("g9", "5")])
}

func TestToggleOffThenOnRestoresDefaults(t *testing.T) {
	user := InternalUser{Companies: []CompanyAccess{
		{CompanyGUID: "g1", TallylocID: "1", CompanyName: "Acme Traders", RoleID: 5, IsExternalUser: true},
	}}
	d := NewAccessDraft(user, draftConnections())
	k := key("g1", "1")

	require.NoError(t, d.Toggle(k))
	assert.False(t, d.IsSelected(k))
	require.NoError(t, d.Toggle(k))

	assert.Equal(t, CompanySettings{RoleID: 0, IsExternalUser: false}, d.Settings[k])
}

func TestToggleUnknownCompany(t *testing.T) {
	d := NewAccessDraft(InternalUser{}, draftConnections())
	err := d.Toggle(key("nope", "1"))
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestSetSettingsRequiresSelection(t *testing.T) {
	d := NewAccessDraft(InternalUser{}, draftConnections())
	err := d.SetSettings(key("g1", "1"), CompanySettings{RoleID: 1})
	assert.True(t, errors.Is(err, errors.NotValid))

	require.NoError(t, d.Toggle(key("g1", "1")))
	require.NoError(t, d.SetSettings(key("g1", "1"), CompanySettings{RoleID: 1}))
	assert.Equal(t, RoleID(1), d.Settings[key("g1", "1")].RoleID)
}

func TestSelectAllTwiceRestoresSelection(t *testing.T) {
	starts := map[string][]string{
		"none":    nil,
		"partial": {key("g2", "1")},
		"all":     {key("g1", "1"), key("g2", "1"), key("g1", "2")},
	}
	for name, start := range starts {
		t.Run(name, func(t *testing.T) {
			d := NewAccessDraft(InternalUser{}, draftConnections())
			for _, k := range start {
				require.NoError(t, d.Toggle(k))
			}
			before := d.Selected()

			d.ToggleSelectAll()
			d.ToggleSelectAll()

			assert.Equal(t, before, d.Selected())
		})
	}
}

func TestSelectAllKeepsSettingsOfPreviouslySelected(t *testing.T) {
	d := NewAccessDraft(InternalUser{}, draftConnections())
	k := key("g2", "1")
	require.NoError(t, d.Toggle(k))
	require.NoError(t, d.SetSettings(k, CompanySettings{RoleID: 8}))

	d.ToggleSelectAll()
	assert.Len(t, d.Selected(), 3)
	d.ToggleSelectAll()

	assert.Equal(t, []string{k}, d.Selected())
	assert.Equal(t, RoleID(8), d.Settings[k].RoleID)
}

func TestSelectAllOnlyTouchesVisibleCompanies(t *testing.T) {
	d := NewAccessDraft(InternalUser{}, draftConnections())
	d.SetFilter("acme")
	d.ToggleSelectAll()

	assert.Equal(t, []string{key("g1", "1"), key("g1", "2")}, d.Selected())
}

func TestValidateNamesCompaniesWithoutRole(t *testing.T) {
	d := NewAccessDraft(InternalUser{}, draftConnections())
	require.NoError(t, d.Toggle(key("g1", "1")))
	require.NoError(t, d.Toggle(key("g2", "1")))
	require.NoError(t, d.SetSettings(key("g1", "1"), CompanySettings{RoleID: 2}))

	err := d.Validate()
	require.Error(t, err)
	var missing *MissingRoleError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"Bharat Steel"}, missing.Companies)
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Equal(t, "Please select a role for: Bharat Steel", err.Error())
}

func TestValidateRejectsEmptySelection(t *testing.T) {
	d := NewAccessDraft(InternalUser{}, draftConnections())
	err := d.Validate()
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestCompaniesIsExactlyCheckedSet(t *testing.T) {
	user := InternalUser{Companies: []CompanyAccess{
		{CompanyGUID: "g1", TallylocID: "1", CompanyName: "Acme Traders", RoleID: 5},
		{CompanyGUID: "g2", TallylocID: "1", CompanyName: "Bharat Steel", RoleID: 6},
	}}
	d := NewAccessDraft(user, draftConnections())
	require.NoError(t, d.Toggle(key("g1", "1")))
	require.NoError(t, d.Toggle(key("g1", "2")))
	require.NoError(t, d.SetSettings(key("g1", "2"), CompanySettings{RoleID: 7, IsExternalUser: true}))

	assert.Equal(t, []CompanyAccess{
		{CompanyGUID: "g2", CompanyName: "Bharat Steel", TallylocID: "1", RoleID: 6},
		{CompanyGUID: "g1", CompanyName: "Acme Traders (Pune)", TallylocID: "2", RoleID: 7, IsExternalUser: true},
	}, d.Companies())
}
