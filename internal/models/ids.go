package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// RoleID identifies an access-control role. The upstream sends it as a JSON
// number, a numeric string, an empty string or null; zero means "no role".
type RoleID int

// ParseRoleID parses a role id as it arrives from a form field.
func ParseRoleID(s string) (RoleID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.NotValidf("role id %q", s)
	}
	return RoleID(n), nil
}

// IsZero reports whether no role is set.
func (r RoleID) IsZero() bool { return r == 0 }

func (r RoleID) String() string {
	if r == 0 {
		return ""
	}
	return strconv.Itoa(int(r))
}

// MarshalJSON renders an unset role as "" so drafts read {roleId: ""}.
func (r RoleID) MarshalJSON() ([]byte, error) {
	if r == 0 {
		return []byte(`""`), nil
	}
	return []byte(strconv.Itoa(int(r))), nil
}

func (r *RoleID) UnmarshalJSON(b []byte) error {
	s, err := flexText(b)
	if err != nil {
		return errors.Annotate(err, "role id")
	}
	id, err := ParseRoleID(s)
	if err != nil {
		return err
	}
	*r = id
	return nil
}

// TallylocID identifies a Tally location. Numeric ids are emitted as JSON
// numbers, anything else as a string.
type TallylocID string

func (t TallylocID) MarshalJSON() ([]byte, error) {
	if isDigits(string(t)) {
		return []byte(t), nil
	}
	return json.Marshal(string(t))
}

func (t *TallylocID) UnmarshalJSON(b []byte) error {
	s, err := flexText(b)
	if err != nil {
		return errors.Annotate(err, "tallyloc id")
	}
	*t = TallylocID(s)
	return nil
}

// UserID identifies an internal user upstream; treated opaquely.
type UserID string

func (u UserID) MarshalJSON() ([]byte, error) {
	if isDigits(string(u)) {
		return []byte(u), nil
	}
	return json.Marshal(string(u))
}

func (u *UserID) UnmarshalJSON(b []byte) error {
	s, err := flexText(b)
	if err != nil {
		return errors.Annotate(err, "user id")
	}
	*u = UserID(s)
	return nil
}

// BankDetailsID identifies a subscription bank record upstream. It arrives
// as a JSON number or string.
type BankDetailsID string

func (id BankDetailsID) MarshalJSON() ([]byte, error) {
	if isDigits(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *BankDetailsID) UnmarshalJSON(b []byte) error {
	s, err := flexText(b)
	if err != nil {
		return errors.Annotate(err, "bank details id")
	}
	*id = BankDetailsID(s)
	return nil
}

// MasterID is Tally's MASTERID for ledger groups, stock groups and stock
// categories. It is never interpreted, only round-tripped.
type MasterID string

func (m *MasterID) UnmarshalJSON(b []byte) error {
	s, err := flexText(b)
	if err != nil {
		return errors.Annotate(err, "masterid")
	}
	*m = MasterID(s)
	return nil
}

// CompanyKey is the identity of a company connection. The same GUID can
// appear under more than one Tally location.
type CompanyKey struct {
	GUID       string     `json:"guid"`
	TallylocID TallylocID `json:"tallyloc_id"`
}

func (k CompanyKey) String() string {
	return k.GUID + "@" + string(k.TallylocID)
}

// IsZero reports whether the key is unset.
func (k CompanyKey) IsZero() bool {
	return k.GUID == "" && k.TallylocID == ""
}

// ParseCompanyKey is the inverse of CompanyKey.String.
func ParseCompanyKey(s string) (CompanyKey, error) {
	i := strings.LastIndex(s, "@")
	if i <= 0 || i == len(s)-1 {
		return CompanyKey{}, errors.NotValidf("company key %q", s)
	}
	return CompanyKey{GUID: s[:i], TallylocID: TallylocID(s[i+1:])}, nil
}

// flexText returns the literal text of a JSON string or number. String
// values are returned as sent.
func flexText(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", errors.Errorf("expected string or number, got %s", b)
	}
	return n.String(), nil
}

func isDigits(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
