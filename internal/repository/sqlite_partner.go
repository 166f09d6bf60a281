package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// SQLitePartnerRepo implements PartnerRepo using a SQLite database.
type SQLitePartnerRepo struct {
	db db.DBTX
}

// NewSQLitePartnerRepo creates a new SQLitePartnerRepo.
func NewSQLitePartnerRepo(conn db.DBTX) *SQLitePartnerRepo {
	return &SQLitePartnerRepo{db: conn}
}

const partnerColumns = `id, name, city, contact_person, contact_email, domains, active, created_at, updated_at`

func (r *SQLitePartnerRepo) Create(ctx context.Context, p *domain.IndustryPartner) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO industry_partners (`+partnerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.City, p.ContactPerson, p.ContactEmail, joinList(p.Domains),
		boolToInt(p.Active), formatTimestamp(p.CreatedAt), formatTimestamp(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting industry partner: %w", err)
	}
	return nil
}

func (r *SQLitePartnerRepo) GetByID(ctx context.Context, id string) (*domain.IndustryPartner, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+partnerColumns+` FROM industry_partners WHERE id = ?`, id)
	return scanPartner(row)
}

func (r *SQLitePartnerRepo) Update(ctx context.Context, p *domain.IndustryPartner) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE industry_partners SET name = ?, city = ?, contact_person = ?, contact_email = ?,
		 domains = ?, active = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.City, p.ContactPerson, p.ContactEmail, joinList(p.Domains),
		boolToInt(p.Active), formatTimestamp(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("updating industry partner: %w", err)
	}
	return requireAffected(res, "industry partner", p.ID)
}

// List filters by active flag and a case-insensitive search over name, city
// and domains.
func (r *SQLitePartnerRepo) List(ctx context.Context, f PartnerFilter) ([]*domain.IndustryPartner, error) {
	query := `SELECT ` + partnerColumns + ` FROM industry_partners WHERE 1 = 1`
	var args []any
	if f.ActiveOnly {
		query += ` AND active = 1`
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		query += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(city) LIKE ? ESCAPE '\' OR LOWER(domains) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing industry partners: %w", err)
	}
	defer rows.Close()

	var out []*domain.IndustryPartner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating industry partners: %w", err)
	}
	return out, nil
}

func scanPartner(row rowScanner) (*domain.IndustryPartner, error) {
	var p domain.IndustryPartner
	var domains, createdAtStr, updatedAtStr string
	var active int
	err := row.Scan(&p.ID, &p.Name, &p.City, &p.ContactPerson, &p.ContactEmail, &domains, &active, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, notFound("industry partner", err)
	}
	p.Domains = splitList(domains)
	p.Active = intToBool(active)
	if p.CreatedAt, err = parseTimestamp(createdAtStr, "created_at"); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTimestamp(updatedAtStr, "updated_at"); err != nil {
		return nil, err
	}
	return &p, nil
}
