package models

// MultiValue is shown when a user's per-company values differ.
const MultiValue = "Multi"

// CompanyAccess is one company an internal user can reach.
type CompanyAccess struct {
	CompanyGUID    string     `json:"companyGuid"`
	CompanyName    string     `json:"companyName"`
	TallylocID     TallylocID `json:"tallylocId"`
	RoleID         RoleID     `json:"roleId"`
	IsExternalUser bool       `json:"isExternalUser"`
}

// Key returns the company identity.
func (a CompanyAccess) Key() CompanyKey {
	return CompanyKey{GUID: a.CompanyGUID, TallylocID: a.TallylocID}
}

// InternalUser is a user managed through the create-access workflow.
type InternalUser struct {
	ID         UserID          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	MobileNo   string          `json:"mobileno"`
	UserActive bool            `json:"userActive"`
	Companies  []CompanyAccess `json:"companies"`
}

// ConsolidatedAccess is the single-row summary of a user's per-company access.
type ConsolidatedAccess struct {
	Role     string `json:"role"`
	External string `json:"external"`
}

// Consolidate collapses role and external flag to one value when they are the
// same for every company, otherwise reports MultiValue.
func (u InternalUser) Consolidate(roles RoleNames) ConsolidatedAccess {
	if len(u.Companies) == 0 {
		return ConsolidatedAccess{}
	}
	first := u.Companies[0]
	sameRole, sameExternal := true, true
	for _, c := range u.Companies[1:] {
		if c.RoleID != first.RoleID {
			sameRole = false
		}
		if c.IsExternalUser != first.IsExternalUser {
			sameExternal = false
		}
	}

	out := ConsolidatedAccess{Role: MultiValue, External: MultiValue}
	if sameRole {
		out.Role = roles.Name(first.RoleID)
	}
	if sameExternal {
		out.External = yesNo(first.IsExternalUser)
	}
	return out
}

// UserRow is an internal user as listed in the create-access table.
type UserRow struct {
	InternalUser
	Consolidated ConsolidatedAccess `json:"consolidated"`
}

// CreateAccessRequest creates an internal user with per-company access.
type CreateAccessRequest struct {
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	MobileNo  string          `json:"mobileno"`
	Companies []CompanyAccess `json:"companies"`
}

// UpdateAccessRequest replaces an internal user's company list.
type UpdateAccessRequest struct {
	Email     string          `json:"email"`
	Companies []CompanyAccess `json:"companies"`
}

// RemoveAccessRequest revokes all of a user's company access.
type RemoveAccessRequest struct {
	Email string `json:"email"`
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
