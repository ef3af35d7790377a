package models

// BankDetails is a bank record used for subscription payouts.
type BankDetails struct {
	ID                BankDetailsID `json:"id,omitempty"`
	AccountHolderName string `json:"account_holder_name"`
	AccountNumber     string `json:"account_number"`
	IFSCCode          string `json:"ifsc_code"`
	BankName          string `json:"bank_name"`
	BranchName        string `json:"branch_name,omitempty"`
	UPIID             string `json:"upi_id,omitempty"`
	IsActive          bool   `json:"is_active"`
}
