package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/juju/errors"

	"access-console/internal/models"
	"access-console/internal/upstream"
)

var (
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountPattern = regexp.MustCompile(`^[0-9]{9,18}$`)
	upiPattern     = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,256}@[a-zA-Z]{2,64}$`)
)

// BankDetailsService manages the bank records used for subscription payouts.
type BankDetailsService struct {
	Client *upstream.Client
	Audit  AuditRecorder
}

func NewBankDetailsService(client *upstream.Client, audit AuditRecorder) *BankDetailsService {
	return &BankDetailsService{Client: client, Audit: audit}
}

// ValidateBankDetails normalizes b and rejects it before any network call.
func ValidateBankDetails(b *models.BankDetails) error {
	b.AccountHolderName = strings.TrimSpace(b.AccountHolderName)
	b.AccountNumber = strings.ReplaceAll(strings.TrimSpace(b.AccountNumber), " ", "")
	b.IFSCCode = strings.ToUpper(strings.TrimSpace(b.IFSCCode))
	b.BankName = strings.TrimSpace(b.BankName)
	b.BranchName = strings.TrimSpace(b.BranchName)
	b.UPIID = strings.TrimSpace(b.UPIID)

	switch {
	case b.AccountHolderName == "":
		return errors.NewNotValid(nil, "Account holder name is required")
	case b.AccountNumber == "":
		return errors.NewNotValid(nil, "Account number is required")
	case !accountPattern.MatchString(b.AccountNumber):
		return errors.NewNotValid(nil, "Account number must be 9 to 18 digits")
	case b.IFSCCode == "":
		return errors.NewNotValid(nil, "IFSC code is required")
	case !ifscPattern.MatchString(b.IFSCCode):
		return errors.NewNotValid(nil, "Invalid IFSC code")
	case b.BankName == "":
		return errors.NewNotValid(nil, "Bank name is required")
	case b.UPIID != "" && !upiPattern.MatchString(b.UPIID):
		return errors.NewNotValid(nil, "Invalid UPI ID")
	}
	return nil
}

func (s *BankDetailsService) List(ctx context.Context, sess *models.Session) ([]models.BankDetails, error) {
	details, err := s.Client.BankDetails(ctx, sess.Token)
	if err != nil {
		return nil, errors.Annotate(err, "Error fetching bank details")
	}
	if details == nil {
		details = []models.BankDetails{}
	}
	return details, nil
}

func (s *BankDetailsService) Create(ctx context.Context, sess *models.Session, b models.BankDetails) error {
	b.ID = ""
	if err := ValidateBankDetails(&b); err != nil {
		return err
	}
	if err := s.Client.CreateBankDetails(ctx, sess.Token, b); err != nil {
		return errors.Annotate(err, "Error saving bank details")
	}
	audit(ctx, s.Audit, sess, models.ActionBankCreate, "bank_details", maskAccount(b.AccountNumber), "",
		"Added bank account at "+b.BankName)
	return nil
}

func (s *BankDetailsService) Update(ctx context.Context, sess *models.Session, id string, b models.BankDetails) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.NewNotValid(nil, "Bank details id is required")
	}
	b.ID = models.BankDetailsID(id)
	if err := ValidateBankDetails(&b); err != nil {
		return err
	}
	if err := s.Client.UpdateBankDetails(ctx, sess.Token, id, b); err != nil {
		return errors.Annotate(err, "Error updating bank details")
	}
	audit(ctx, s.Audit, sess, models.ActionBankUpdate, "bank_details", id, "",
		"Updated bank account "+maskAccount(b.AccountNumber))
	return nil
}

// maskAccount keeps the last four digits.
func maskAccount(n string) string {
	if len(n) <= 4 {
		return n
	}
	return strings.Repeat("X", len(n)-4) + n[len(n)-4:]
}
