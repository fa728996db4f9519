package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/result/entity"
	userentity "github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
)

// SortColumns maps the public sort keys of the results collection to columns.
var SortColumns = map[string]string{
	"id":     "r.id",
	"result": "r.result",
	"user":   "r.user_id",
	"time":   "r.recorded_at",
}

// ResultRepo provides data access for the results table, joined with the
// owning user on reads.
type ResultRepo struct {
	db *sqlx.DB
}

func NewResultRepo(db *sqlx.DB) *ResultRepo { return &ResultRepo{db: db} }

type resultRow struct {
	ID         int64            `db:"id"`
	Value      int64            `db:"result"`
	UserID     int64            `db:"user_id"`
	RecordedAt time.Time        `db:"recorded_at"`
	UserEmail  string           `db:"user_email"`
	UserRoles  userentity.Roles `db:"user_roles"`
	UserCreate time.Time        `db:"user_created_at"`
	UserUpdate time.Time        `db:"user_updated_at"`
}

func (r resultRow) toEntity() entity.Result {
	roles := r.UserRoles
	if roles == nil {
		roles = userentity.Roles{}
	}
	return entity.Result{
		ID:     r.ID,
		Value:  r.Value,
		UserID: r.UserID,
		Time:   r.RecordedAt.UTC(),
		Owner: &userentity.User{
			ID:        r.UserID,
			Email:     r.UserEmail,
			Roles:     roles,
			CreatedAt: r.UserCreate.UTC(),
			UpdatedAt: r.UserUpdate.UTC(),
		},
	}
}

const selectResults = `SELECT r.id, r.result, r.user_id, r.recorded_at,
	u.email AS user_email, u.roles AS user_roles,
	u.created_at AS user_created_at, u.updated_at AS user_updated_at
FROM results r JOIN users u ON u.id = r.user_id`

// List returns all results ordered by the given sort key ("" means id).
func (r *ResultRepo) List(ctx context.Context, sortKey string) ([]entity.Result, error) {
	if sortKey == "" {
		sortKey = "id"
	}
	col, ok := SortColumns[sortKey]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidSortKey, sortKey)
	}
	var rows []resultRow
	if err := r.db.SelectContext(ctx, &rows, selectResults+" ORDER BY "+col+", r.id"); err != nil {
		return nil, err
	}
	out := make([]entity.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// GetByID fetches a result with its owner or returns sql.ErrNoRows.
func (r *ResultRepo) GetByID(ctx context.Context, id int64) (*entity.Result, error) {
	var row resultRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(selectResults+" WHERE r.id = ?"), id); err != nil {
		return nil, err
	}
	res := row.toEntity()
	return &res, nil
}

// ValueOwner returns the id of the result holding value, or 0 when free.
func (r *ResultRepo) ValueOwner(ctx context.Context, value int64) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`SELECT id FROM results WHERE result = ?`), value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// Create inserts res; the id must already be assigned.
func (r *ResultRepo) Create(ctx context.Context, res entity.Result) error {
	const q = `INSERT INTO results (id, result, user_id, recorded_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(q), res.ID, res.Value, res.UserID, res.Time.UTC())
	return err
}

// Update overwrites value, owner and time. Returns sql.ErrNoRows when the
// row is gone.
func (r *ResultRepo) Update(ctx context.Context, res entity.Result) error {
	const q = `UPDATE results SET result = ?, user_id = ?, recorded_at = ? WHERE id = ?`
	out, err := r.db.ExecContext(ctx, r.db.Rebind(q), res.Value, res.UserID, res.Time.UTC(), res.ID)
	if err != nil {
		return err
	}
	return expectOne(out)
}

// Delete removes a result; its owner is untouched.
func (r *ResultRepo) Delete(ctx context.Context, id int64) error {
	out, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM results WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectOne(out)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
