package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// SQLiteUserRepo implements UserRepo using a SQLite database.
type SQLiteUserRepo struct {
	db db.DBTX
}

// NewSQLiteUserRepo creates a new SQLiteUserRepo.
func NewSQLiteUserRepo(conn db.DBTX) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: conn}
}

const userColumns = `username, display_name, email, role, active, created_at`

func (r *SQLiteUserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		strings.ToLower(u.Username), u.DisplayName, u.Email, string(u.Role),
		boolToInt(u.Active), formatTimestamp(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", u.Username, domain.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepo) Get(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, strings.ToLower(username))
	return scanUser(row)
}

func (r *SQLiteUserRepo) List(ctx context.Context, activeOnly bool) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`
	if activeOnly {
		query = `SELECT ` + userColumns + ` FROM users WHERE active = 1 ORDER BY username`
	}
	return r.query(ctx, query)
}

// ListByRole returns active users holding any of roles.
func (r *SQLiteUserRepo) ListByRole(ctx context.Context, roles ...domain.Role) ([]*domain.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(roles)), ",")
	args := make([]any, len(roles))
	for i, role := range roles {
		args[i] = string(role)
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE active = 1 AND role IN (` + placeholders + `) ORDER BY username`
	return r.query(ctx, query, args...)
}

func (r *SQLiteUserRepo) Update(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET display_name = ?, email = ?, role = ?, active = ? WHERE username = ?`,
		u.DisplayName, u.Email, string(u.Role), boolToInt(u.Active), strings.ToLower(u.Username))
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return requireAffected(res, "user", u.Username)
}

// Search returns active users whose username or display name contains query,
// case-insensitively, ordered with prefix matches on the username first.
func (r *SQLiteUserRepo) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	pattern := "%" + escapeLike(q) + "%"
	prefix := escapeLike(q) + "%"
	sqlQuery := `SELECT ` + userColumns + ` FROM users
		WHERE active = 1 AND (username LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\')
		ORDER BY CASE WHEN username LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, username
		LIMIT ?`
	return r.query(ctx, sqlQuery, pattern, pattern, prefix, limit)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *SQLiteUserRepo) query(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var roleStr, createdAtStr string
	var active int
	if err := row.Scan(&u.Username, &u.DisplayName, &u.Email, &roleStr, &active, &createdAtStr); err != nil {
		return nil, notFound("user", err)
	}
	u.Role = domain.Role(roleStr)
	u.Active = intToBool(active)
	var err error
	if u.CreatedAt, err = parseTimestamp(createdAtStr, "created_at"); err != nil {
		return nil, err
	}
	return &u, nil
}
