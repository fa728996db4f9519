package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
)

// SortColumns maps the public sort keys of the users collection to columns.
var SortColumns = map[string]string{
	"id":    "id",
	"email": "email",
	"roles": "roles",
}

// UserRepo provides data access for the users table using sqlx. Queries are
// written with '?' placeholders and rebound for the connection's driver.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

type userRow struct {
	ID        int64        `db:"id"`
	Email     string       `db:"email"`
	Password  string       `db:"password"`
	Roles     entity.Roles `db:"roles"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func (r userRow) toEntity() entity.User {
	roles := r.Roles
	if roles == nil {
		roles = entity.Roles{}
	}
	return entity.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.Password,
		Roles:        roles,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

const selectUsers = `SELECT id, email, password, roles, created_at, updated_at FROM users`

// List returns all users ordered by the given sort key ("" means id).
// Unknown keys yield apperr.ErrInvalidSortKey.
func (r *UserRepo) List(ctx context.Context, sortKey string) ([]entity.User, error) {
	if sortKey == "" {
		sortKey = "id"
	}
	col, ok := SortColumns[sortKey]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidSortKey, sortKey)
	}
	var rows []userRow
	q := selectUsers + " ORDER BY " + col + ", id"
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	out := make([]entity.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// GetByID fetches a user or returns sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(selectUsers+" WHERE id = ?"), id); err != nil {
		return nil, err
	}
	u := row.toEntity()
	return &u, nil
}

// GetByEmail fetches a user by exact email or returns sql.ErrNoRows.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(selectUsers+" WHERE email = ?"), email); err != nil {
		return nil, err
	}
	u := row.toEntity()
	return &u, nil
}

// EmailOwner returns the id of the user holding email, or 0 when free.
func (r *UserRepo) EmailOwner(ctx context.Context, email string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`SELECT id FROM users WHERE email = ?`), email)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// Create inserts u; the id must already be assigned.
func (r *UserRepo) Create(ctx context.Context, u entity.User) error {
	const q = `INSERT INTO users (id, email, password, roles, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(q),
		u.ID, u.Email, u.PasswordHash, u.Roles, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	return err
}

// Update overwrites the mutable columns of u. Returns sql.ErrNoRows when
// the row is gone.
func (r *UserRepo) Update(ctx context.Context, u entity.User) error {
	const q = `UPDATE users SET email = ?, password = ?, roles = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), u.Email, u.PasswordHash, u.Roles, u.UpdatedAt.UTC(), u.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// UpdatePasswordHash replaces only the stored hash (used by rehash on login).
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string, at time.Time) error {
	const q = `UPDATE users SET password = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), hash, at.UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Delete removes a user; the user's results go with it (ON DELETE CASCADE).
// Returns sql.ErrNoRows when nothing was deleted.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectOne(res)
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
