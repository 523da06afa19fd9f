package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/bus-trip-reservation/internal/model"
)

// UserRepo manages persistence for accounts.  Emails are normalized to
// lowercase before every read and write so the unique key behaves
// case-insensitively regardless of collation.
type UserRepo struct {
    db *sql.DB
}

// NewUserRepo constructs a UserRepo with the given DB handle.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func normalizeEmail(email string) string {
    return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a new account with an already-hashed password and assigns
// the generated ID back to the struct.  It returns ErrDuplicate when the
// email is taken.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
    const q = `INSERT INTO users (email, password_hash, role) VALUES (?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, normalizeEmail(u.Email), u.PasswordHash, u.Role)
    if err != nil {
        if isDuplicateKey(err) {
            return ErrDuplicate
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    u.ID = uint64(id)
    return nil
}

const userColumns = `id, email, password_hash, role, is_active, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
    var u model.User
    err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return &u, nil
}

// GetByEmail fetches an account by normalized email.  It returns
// ErrNotFound when no account uses the address.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
    q := `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`
    return scanUser(r.db.QueryRowContext(ctx, q, normalizeEmail(email)))
}

// GetByID fetches an account by ID.  It returns ErrNotFound when no
// matching row exists.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
    q := `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`
    return scanUser(r.db.QueryRowContext(ctx, q, id))
}
