package models

// Grant statuses as reported by the ledger share-access endpoint.
const (
	GrantInactive = 0
	GrantActive   = 1
)

// LedgerRef is a ledger currently assigned to a grant.
type LedgerRef struct {
	Name  string `json:"NAME"`
	Group string `json:"GROUP"`
}

// EmailGrant is one row of the share-access table for a company.
type EmailGrant struct {
	Email   string      `json:"EMAIL"`
	Status  int         `json:"STATUS"`
	RoleID  RoleID      `json:"ROLE_ID"`
	Ledgers []LedgerRef `json:"LEDGERS"`
}

// IsActive reports whether the email currently has access.
func (g EmailGrant) IsActive() bool {
	return g.Status == GrantActive
}

// ShareAccessEntry is one email in a grant submission.
type ShareAccessEntry struct {
	Email  string `json:"email"`
	RoleID RoleID `json:"role_id"`
}

// ShareAccessRequest submits the full selection for a company. The upstream
// computes activations and deactivations from it.
type ShareAccessRequest struct {
	CompanyRef
	Emails []ShareAccessEntry `json:"emails"`
}

// ShareAccessResult carries the upstream totals.
type ShareAccessResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	Deactivated int    `json:"deactivated"`
	Activated   int    `json:"activated"`
	Created     int    `json:"created"`
	NewAccounts int    `json:"newAccounts"`
}

// Granted is the number of emails that gained access.
func (r ShareAccessResult) Granted() int {
	return r.Activated + r.Created + r.NewAccounts
}

// ShareSummary is what the console reports after a submission.
type ShareSummary struct {
	Granted      int    `json:"granted"`
	Deactivated  int    `json:"deactivated"`
	NoChanges    bool   `json:"noChanges"`
	Message      string `json:"message"`
	RefreshError string `json:"refreshError,omitempty"`
}
