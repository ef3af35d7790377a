package models

import (
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// GroupKind is one of the three classification lists a user can be scoped by.
type GroupKind string

const (
	LedgerGroups    GroupKind = "ledgerGroups"
	StockGroups     GroupKind = "stockGroups"
	StockCategories GroupKind = "stockCategories"
)

// GroupKinds lists the tabs in display order.
var GroupKinds = []GroupKind{LedgerGroups, StockGroups, StockCategories}

// ParseGroupKind validates a tab name.
func ParseGroupKind(s string) (GroupKind, error) {
	for _, k := range GroupKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.NotValidf("group kind %q", s)
}

// GroupItem is a ledger group, stock group or stock category.
type GroupItem struct {
	ID          MasterID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
}

// GroupRef is how the upstream stores a selected group.
type GroupRef struct {
	Name     string   `json:"name"`
	MasterID MasterID `json:"masterid"`
}

// UserGroupsQuery scopes a group selection to a user and company.
type UserGroupsQuery struct {
	UserID UserID `json:"userId"`
	CompanyRef
}

// UserGroups is the stored selection for a user and company.
type UserGroups struct {
	LedgerGroups    []GroupRef `json:"ledgerGroups"`
	StockGroups     []GroupRef `json:"stockGroups"`
	StockCategories []GroupRef `json:"stockCategories"`
}

// Refs returns the stored selection for one tab.
func (u UserGroups) Refs(kind GroupKind) []GroupRef {
	switch kind {
	case LedgerGroups:
		return u.LedgerGroups
	case StockGroups:
		return u.StockGroups
	case StockCategories:
		return u.StockCategories
	}
	return nil
}

// SaveUserGroupsRequest stores a selection.
type SaveUserGroupsRequest struct {
	UserGroupsQuery
	UserGroups
}

// GroupTab is one multi-select list in the group modal.
type GroupTab struct {
	Items    []GroupItem `json:"items"`
	Selected []MasterID  `json:"selected"`
}

// FilterGroups keeps the items whose name or description contains filter,
// case-insensitively. There is no ranking.
func FilterGroups(items []GroupItem, filter string) []GroupItem {
	q := strings.ToLower(strings.TrimSpace(filter))
	if q == "" {
		return items
	}
	var out []GroupItem
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), q) || strings.Contains(strings.ToLower(it.Description), q) {
			out = append(out, it)
		}
	}
	return out
}

// GroupDraft is the group-assignment modal for one user and company.
type GroupDraft struct {
	UserID  UserID                 `json:"userId"`
	Company Connection             `json:"company"`
	Tabs    map[GroupKind]GroupTab `json:"tabs"`
}

// NewGroupDraft builds the modal from the loaded lists and the stored selection.
func NewGroupDraft(userID UserID, company Connection, lists map[GroupKind][]GroupItem, existing UserGroups) *GroupDraft {
	d := &GroupDraft{UserID: userID, Company: company, Tabs: make(map[GroupKind]GroupTab)}
	for _, kind := range GroupKinds {
		tab := GroupTab{Items: lists[kind]}
		for _, ref := range existing.Refs(kind) {
			tab.Selected = append(tab.Selected, ref.MasterID)
		}
		d.Tabs[kind] = tab
	}
	return d
}

func masterIDSet(ids []MasterID) set.Strings {
	s := set.NewStrings()
	for _, id := range ids {
		s.Add(string(id))
	}
	return s
}

// Toggle selects or deselects one item in a tab.
func (d *GroupDraft) Toggle(kind GroupKind, id MasterID) error {
	tab, ok := d.Tabs[kind]
	if !ok {
		return errors.NotValidf("group kind %q", kind)
	}
	s := masterIDSet(tab.Selected)
	if s.Contains(string(id)) {
		s.Remove(string(id))
	} else {
		s.Add(string(id))
	}
	// Keep the items' display order.
	var selected []MasterID
	placed := set.NewStrings()
	for _, it := range tab.Items {
		if s.Contains(string(it.ID)) {
			selected = append(selected, it.ID)
			placed.Add(string(it.ID))
		}
	}
	for _, rest := range s.Difference(placed).SortedValues() {
		selected = append(selected, MasterID(rest))
	}
	tab.Selected = selected
	d.Tabs[kind] = tab
	return nil
}

// Filter returns the visible items of a tab.
func (d *GroupDraft) Filter(kind GroupKind, filter string) ([]GroupItem, error) {
	tab, ok := d.Tabs[kind]
	if !ok {
		return nil, errors.NotValidf("group kind %q", kind)
	}
	return FilterGroups(tab.Items, filter), nil
}

// Payload resolves each selected id back to its display name. Ids that are
// no longer in the loaded list are returned in dropped.
func (d *GroupDraft) Payload() (req SaveUserGroupsRequest, dropped []MasterID) {
	req.UserGroupsQuery = UserGroupsQuery{UserID: d.UserID, CompanyRef: d.Company.Ref()}
	resolve := func(kind GroupKind) []GroupRef {
		tab := d.Tabs[kind]
		names := make(map[MasterID]string, len(tab.Items))
		for _, it := range tab.Items {
			names[it.ID] = it.Name
		}
		refs := []GroupRef{}
		for _, id := range tab.Selected {
			name, ok := names[id]
			if !ok {
				dropped = append(dropped, id)
				continue
			}
			refs = append(refs, GroupRef{Name: name, MasterID: id})
		}
		return refs
	}
	req.LedgerGroups = resolve(LedgerGroups)
	req.StockGroups = resolve(StockGroups)
	req.StockCategories = resolve(StockCategories)
	return req, dropped
}
