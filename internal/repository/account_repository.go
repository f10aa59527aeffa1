package repository

import (
	"context"      // context carries deadlines to every query
	"database/sql" // sql provides generic database operations
	"errors"       // errors inspects driver errors
	"fmt"          // fmt wraps driver errors with the failing operation
	"time"         // time stamps password and login updates

	"github.com/go-sql-driver/mysql" // mysql exposes the server error number for duplicate keys
	"github.com/google/uuid"         // uuid generates account identifiers

	"github.com/iliyamo/account-service/internal/model"
)

// erDupEntry is the MySQL server error raised by a unique index violation.
const erDupEntry = 1062

const accountColumns = `id, user_name, first_name, last_name, hashed_password, security_answer_hash,
	is_active, is_admin, date_created, last_update, last_login`

// AccountRepo is the MySQL implementation of AccountStore.  The connection
// must be opened with clientFoundRows so that an UPDATE that matches a row
// but changes nothing still reports one affected row; zero then always
// means "no such account".
type AccountRepo struct {
	db *sql.DB // db is the underlying connection pool
}

// NewAccountRepo constructs an AccountRepo around an open pool.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Insert stores a new account under a freshly generated UUID.  A clash on
// user_name is reported as ErrDuplicateKey and a.ID is left untouched.
func (r *AccountRepo) Insert(ctx context.Context, a *model.Account) error {
	id := uuid.NewString()
	const q = `INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		id, a.UserName, a.FirstName, a.LastName, a.HashedPassword, a.SecurityAnswerHash,
		a.IsActive, a.IsAdmin, a.DateCreated, a.LastUpdate, a.LastLogin)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert account: %w", err)
	}
	a.ID = id
	return nil
}

// FindByID fetches one account by its identifier.
func (r *AccountRepo) FindByID(ctx context.Context, id string) (model.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? LIMIT 1`
	return r.findOne(ctx, q, id)
}

// FindByUserName fetches one account by its exact, case-sensitive username.
func (r *AccountRepo) FindByUserName(ctx context.Context, userName string) (model.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE user_name = ? LIMIT 1`
	return r.findOne(ctx, q, userName)
}

func (r *AccountRepo) findOne(ctx context.Context, q string, arg any) (model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, ErrNotFound
		}
		return model.Account{}, fmt.Errorf("select account: %w", err)
	}
	return a, nil
}

// FindAll returns every account ordered by creation time.
func (r *AccountRepo) FindAll(ctx context.Context) ([]model.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts ORDER BY date_created, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

// DeleteByID physically removes one account.
func (r *AccountRepo) DeleteByID(ctx context.Context, id string) error {
	return r.exec(ctx, "delete account", `DELETE FROM accounts WHERE id = ?`, id)
}

// DeleteByUserName physically removes one account.
func (r *AccountRepo) DeleteByUserName(ctx context.Context, userName string) error {
	return r.exec(ctx, "delete account", `DELETE FROM accounts WHERE user_name = ?`, userName)
}

// Update rewrites the mutable columns of a.  date_created and last_login
// are not touched.
func (r *AccountRepo) Update(ctx context.Context, a model.Account) error {
	const q = `UPDATE accounts
	           SET user_name = ?, first_name = ?, last_name = ?, hashed_password = ?,
	               security_answer_hash = ?, is_active = ?, is_admin = ?, last_update = ?
	           WHERE id = ?`
	return r.exec(ctx, "update account", q,
		a.UserName, a.FirstName, a.LastName, a.HashedPassword,
		a.SecurityAnswerHash, a.IsActive, a.IsAdmin, a.LastUpdate, a.ID)
}

// UpdateProfile rewrites the owner-editable columns.  NULL digests fall
// back to the stored values through COALESCE.
func (r *AccountRepo) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) error {
	const q = `UPDATE accounts
	           SET user_name = ?, first_name = ?, last_name = ?,
	               hashed_password = COALESCE(?, hashed_password),
	               security_answer_hash = COALESCE(?, security_answer_hash),
	               last_update = ?
	           WHERE id = ?`
	return r.exec(ctx, "update profile", q,
		p.UserName, p.FirstName, p.LastName, nullString(p.HashedPassword),
		nullString(p.SecurityAnswerHash), p.At, id)
}

// UpdatePassword replaces only the password digest.
func (r *AccountRepo) UpdatePassword(ctx context.Context, id, hashedPassword string, at time.Time) error {
	const q = `UPDATE accounts SET hashed_password = ?, last_update = ? WHERE id = ?`
	return r.exec(ctx, "update password", q, hashedPassword, at, id)
}

// TouchLastLogin records a successful login.
func (r *AccountRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE accounts SET last_login = ? WHERE id = ?`
	return r.exec(ctx, "touch last login", q, at, id)
}

// Ping checks that the database answers.
func (r *AccountRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// exec runs a single-row write and maps its outcome onto the store errors.
func (r *AccountRepo) exec(ctx context.Context, op, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(s rowScanner) (model.Account, error) {
	var (
		a         model.Account
		lastLogin sql.NullTime
	)
	err := s.Scan(&a.ID, &a.UserName, &a.FirstName, &a.LastName, &a.HashedPassword, &a.SecurityAnswerHash,
		&a.IsActive, &a.IsAdmin, &a.DateCreated, &a.LastUpdate, &lastLogin)
	if err != nil {
		return model.Account{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLogin = &t
	}
	return a, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}
