package models

import "time"

// Audit action types
const (
	ActionShareAccess     = "share_access"
	ActionAccessCreate    = "access_create"
	ActionAccessUpdate    = "access_update"
	ActionAccessRemove    = "access_remove"
	ActionGroupAssignment = "group_assignment"
	ActionBankCreate      = "bank_details_create"
	ActionBankUpdate      = "bank_details_update"
	ActionReportExport    = "report_export"
)

// AuditLog records an administrative action taken through the console.
type AuditLog struct {
	ID          int64     `json:"id" db:"id"`
	ActorEmail  string    `json:"actor_email" db:"actor_email"`
	ActionType  string    `json:"action_type" db:"action_type"`
	TargetType  string    `json:"target_type" db:"target_type"`
	TargetID    string    `json:"target_id,omitempty" db:"target_id"`
	CompanyGUID *string   `json:"company_guid,omitempty" db:"company_guid"`
	Description string    `json:"description" db:"description"`
	IPAddress   *string   `json:"ip_address,omitempty" db:"ip_address"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
