package tickets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/ticketvault/internal/common"
	"github.com/dmitrijs2005/ticketvault/internal/dbx"
	"github.com/dmitrijs2005/ticketvault/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgInsufficientPrivilege = "42501"

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// mapErr tags permission failures so callers can tell them apart from other
// store errors.
func mapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInsufficientPrivilege {
		return fmt.Errorf("%s: %w: %v", op, common.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Put inserts the ticket or replaces every column of an existing one with the
// same id.
func (r *PostgresRepository) Put(ctx context.Context, t *models.Ticket) error {
	ips, err := json.Marshal(nonNil(t.IPAddresses))
	if err != nil {
		return fmt.Errorf("encode ip addresses: %w", err)
	}

	query := `
		INSERT INTO tickets (id, text, iv, auth_tag, algorithm, expires_at, created_at, one_time, ip_addresses, client_mode, offloaded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			iv = EXCLUDED.iv,
			auth_tag = EXCLUDED.auth_tag,
			algorithm = EXCLUDED.algorithm,
			expires_at = EXCLUDED.expires_at,
			created_at = EXCLUDED.created_at,
			one_time = EXCLUDED.one_time,
			ip_addresses = EXCLUDED.ip_addresses,
			client_mode = EXCLUDED.client_mode,
			offloaded = EXCLUDED.offloaded
	`
	_, err = r.db.ExecContext(ctx, query,
		t.ID, t.Text, t.IV, t.AuthTag, t.Algorithm, t.ExpiresAt, t.CreatedAt,
		t.OneTime, string(ips), t.ClientMode, t.Offloaded)
	if err != nil {
		return mapErr("upsert ticket", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Ticket, error) {
	query := `
		SELECT id, text, iv, auth_tag, algorithm, expires_at, created_at, one_time, ip_addresses, client_mode, offloaded
		FROM tickets WHERE id = $1
	`
	var (
		t   models.Ticket
		ips string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Text, &t.IV, &t.AuthTag, &t.Algorithm, &t.ExpiresAt, &t.CreatedAt,
		&t.OneTime, &ips, &t.ClientMode, &t.Offloaded,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFound("ticket not found")
	}
	if err != nil {
		return nil, mapErr("select ticket", err)
	}

	if ips != "" {
		if err := json.Unmarshal([]byte(ips), &t.IPAddresses); err != nil {
			return nil, fmt.Errorf("decode ip addresses: %w", err)
		}
	}
	if len(t.IPAddresses) == 0 {
		t.IPAddresses = nil
	}
	return &t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return false, mapErr("delete ticket", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) BatchDelete(ctx context.Context, ids []string) error {
	if err := checkBatch(ids); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}

	query := `DELETE FROM tickets WHERE id IN (` + strings.Join(placeholders, ", ") + `)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapErr("batch delete tickets", err)
	}
	return nil
}

func (r *PostgresRepository) ScanByExpiry(ctx context.Context, before int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM tickets WHERE expires_at < $1`, before)
	if err != nil {
		return nil, mapErr("scan expired tickets", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("scan expired tickets", err)
	}
	return ids, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
