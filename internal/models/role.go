package models

// Role is a named permission bundle.
type Role struct {
	ID          RoleID `json:"id"`
	DisplayName string `json:"display_name"`
}

// RoleNames maps role ids to display names.
type RoleNames map[RoleID]string

// NewRoleNames indexes roles by id.
func NewRoleNames(roles []Role) RoleNames {
	names := make(RoleNames, len(roles))
	for _, r := range roles {
		names[r.ID] = r.DisplayName
	}
	return names
}

// Name returns the display name for id, falling back to the id itself.
func (n RoleNames) Name(id RoleID) string {
	if id.IsZero() {
		return ""
	}
	if name, ok := n[id]; ok {
		return name
	}
	return id.String()
}
