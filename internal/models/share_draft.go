package models

import (
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// ShareDraft is the share-access table for one company together with the
// emails currently ticked. The selection only reaches the upstream on submit.
type ShareDraft struct {
	Company  Connection   `json:"company"`
	Grants   []EmailGrant `json:"grants"`
	Selected []string     `json:"selected"`
}

// NewShareDraft starts a draft with every active grant ticked.
func NewShareDraft(company Connection, grants []EmailGrant) *ShareDraft {
	d := &ShareDraft{Company: company, Grants: grants}
	selected := set.NewStrings()
	for _, g := range grants {
		if g.IsActive() {
			selected.Add(normalizeEmail(g.Email))
		}
	}
	d.Selected = selected.SortedValues()
	return d
}

func (d *ShareDraft) selection() set.Strings {
	return set.NewStrings(d.Selected...)
}

func (d *ShareDraft) grant(email string) (EmailGrant, bool) {
	for _, g := range d.Grants {
		if normalizeEmail(g.Email) == email {
			return g, true
		}
	}
	return EmailGrant{}, false
}

// Toggle ticks or unticks an email listed in the table.
func (d *ShareDraft) Toggle(email string) error {
	email = normalizeEmail(email)
	if _, ok := d.grant(email); !ok {
		return errors.NotFoundf("email %q", email)
	}
	s := d.selection()
	if s.Contains(email) {
		s.Remove(email)
	} else {
		s.Add(email)
	}
	d.Selected = s.SortedValues()
	return nil
}

// ToggleSelectAll ticks every email, or unticks all if all are ticked. A
// partial selection is not remembered, so two calls from one end with
// nothing ticked.
func (d *ShareDraft) ToggleSelectAll() {
	all := set.NewStrings()
	for _, g := range d.Grants {
		all.Add(normalizeEmail(g.Email))
	}
	if d.selection().Difference(all).Size() == 0 && all.Difference(d.selection()).Size() == 0 {
		d.Selected = nil
		return
	}
	d.Selected = all.SortedValues()
}

// ReconcileGrants builds the submission for the selected emails. An email
// keeps the role the upstream already recorded for it; otherwise it gets
// role. Emails are matched case-insensitively but a recorded email is sent
// exactly as the upstream spelled it. Entries follow table order, then any
// selected email not in the table.
func ReconcileGrants(selected []string, role RoleID, grants []EmailGrant) []ShareAccessEntry {
	want := set.NewStrings()
	for _, e := range selected {
		want.Add(normalizeEmail(e))
	}

	entries := make([]ShareAccessEntry, 0, want.Size())
	done := set.NewStrings()
	for _, g := range grants {
		email := normalizeEmail(g.Email)
		if !want.Contains(email) || done.Contains(email) {
			continue
		}
		done.Add(email)
		r := role
		if !g.RoleID.IsZero() {
			r = g.RoleID
		}
		entries = append(entries, ShareAccessEntry{Email: g.Email, RoleID: r})
	}
	for _, email := range want.Difference(done).SortedValues() {
		entries = append(entries, ShareAccessEntry{Email: email, RoleID: role})
	}
	return entries
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
