package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/littletalks/backend/internal/models"
)

// Store is the append-only request audit store. Records are inserted once,
// never updated, and removed only by the retention sweep.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, rec models.AnonymizedRequest) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_requests (request_id, internal_user_id, provider, request_type, metadata_hash, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.RequestID, rec.InternalUserID, rec.Provider, rec.RequestType, rec.MetadataHash, rec.CreatedAt, rec.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit request: %w", err)
	}
	return nil
}

type Query struct {
	Provider  string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

func (s *Store) List(ctx context.Context, q Query) ([]models.AnonymizedRequest, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	query := `SELECT request_id, internal_user_id, provider, request_type, metadata_hash, created_at, expires_at
			  FROM audit_requests WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if q.Provider != "" {
		query += fmt.Sprintf(" AND provider = $%d", argIdx)
		args = append(args, q.Provider)
		argIdx++
	}
	if q.StartDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *q.StartDate)
		argIdx++
	}
	if q.EndDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *q.EndDate)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit requests: %w", err)
	}
	defer rows.Close()

	var recs []models.AnonymizedRequest
	for rows.Next() {
		var r models.AnonymizedRequest
		if err := rows.Scan(&r.RequestID, &r.InternalUserID, &r.Provider, &r.RequestType, &r.MetadataHash, &r.CreatedAt, &r.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan audit request: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// PurgeExpired deletes records past their retention window. Called by the
// background worker, never by the request path.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, "DELETE FROM audit_requests WHERE expires_at < now()")
	if err != nil {
		return 0, fmt.Errorf("purge expired audit requests: %w", err)
	}
	return tag.RowsAffected(), nil
}
