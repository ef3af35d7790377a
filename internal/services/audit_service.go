package services

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"access-console/internal/models"
	"access-console/internal/repositories"
)

var logger = loggo.GetLogger("console.services")

// AuditRecorder stores administrative actions.
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// AuditService writes and reads the audit log. Without a repository the
// entries only reach the process log.
type AuditService struct {
	Repo *repositories.AuditLogRepository
}

func NewAuditService(repo *repositories.AuditLogRepository) *AuditService {
	return &AuditService{Repo: repo}
}

// Enabled reports whether entries are persisted.
func (s *AuditService) Enabled() bool {
	return s != nil && s.Repo != nil
}

func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) error {
	logger.Infof("[Audit] %s %s %s/%s: %s", entry.ActorEmail, entry.ActionType, entry.TargetType, entry.TargetID, entry.Description)
	if !s.Enabled() {
		return nil
	}
	return errors.Trace(s.Repo.Create(ctx, entry))
}

// List returns the newest entries first.
func (s *AuditService) List(ctx context.Context, f repositories.AuditFilter) ([]models.AuditLog, error) {
	if !s.Enabled() {
		return nil, errors.NotSupportedf("audit log without a database")
	}
	logs, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, errors.Annotate(err, "Error fetching audit logs")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

// audit records an action taken by sess. Failures are logged and never fail
// the action itself.
func audit(ctx context.Context, rec AuditRecorder, sess *models.Session, action, targetType, targetID, companyGUID, description string) {
	if rec == nil {
		return
	}
	entry := &models.AuditLog{
		ActorEmail:  sess.Email,
		ActionType:  action,
		TargetType:  targetType,
		TargetID:    targetID,
		Description: description,
	}
	if companyGUID != "" {
		entry.CompanyGUID = &companyGUID
	}
	if sess.IPAddress != "" {
		ip := sess.IPAddress
		entry.IPAddress = &ip
	}
	if err := rec.Record(ctx, entry); err != nil {
		logger.Warningf("[Audit] Failed to record %s by %s: %v", action, sess.Email, err)
	}
}
