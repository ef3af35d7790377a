package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/errors"

	"access-console/internal/models"
)

// DefaultAuditLimit caps an unbounded audit listing.
const DefaultAuditLimit = 100

// AuditFilter narrows an audit listing.
type AuditFilter struct {
	ActorEmail  string
	ActionType  string
	CompanyGUID string
	Limit       int
	Offset      int
}

type AuditLogRepository struct {
	DB *pgxpool.Pool
}

func NewAuditLogRepository(db *pgxpool.Pool) *AuditLogRepository {
	return &AuditLogRepository{DB: db}
}

// Create records an administrative action and fills in its id and time.
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			actor_email, action_type, target_type, target_id,
			company_guid, description, ip_address, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`
	err := r.DB.QueryRow(ctx, query,
		log.ActorEmail, log.ActionType, log.TargetType, log.TargetID,
		log.CompanyGUID, log.Description, log.IPAddress,
	).Scan(&log.ID, &log.CreatedAt)
	return errors.Annotate(err, "inserting audit log")
}

// List returns the newest matching entries first.
func (r *AuditLogRepository) List(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	query, args := listAuditQuery(f)
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Annotate(err, "listing audit logs")
	}
	logs, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AuditLog])
	if err != nil {
		return nil, errors.Annotate(err, "scanning audit logs")
	}
	return logs, nil
}

func listAuditQuery(f AuditFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ActorEmail != "" {
		add("LOWER(actor_email) = LOWER($%d)", f.ActorEmail)
	}
	if f.ActionType != "" {
		add("action_type = $%d", f.ActionType)
	}
	if f.CompanyGUID != "" {
		add("company_guid = $%d", f.CompanyGUID)
	}

	limit := f.Limit
	if limit <= 0 || limit > DefaultAuditLimit {
		limit = DefaultAuditLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var b strings.Builder
	b.WriteString(`SELECT id, actor_email, action_type, target_type, COALESCE(target_id, '') AS target_id,
		company_guid, description, ip_address, created_at
		FROM audit_logs`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, limit, offset)
	fmt.Fprintf(&b, " ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}
