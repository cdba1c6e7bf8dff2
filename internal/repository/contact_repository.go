package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/campaign-mailer/internal/errors"
	"github.com/unclebandit/campaign-mailer/internal/model"
)

// ContactRepositoryInterface is the read side the dispatcher and scheduler rely on,
// plus Create for seeding.
type ContactRepositoryInterface interface {
	Create(ctx context.Context, c *model.Contact) error
	GetByID(ctx context.Context, id string) (*model.Contact, error)
	// GetByIDs returns contacts in the order of ids; any unknown id is an error.
	GetByIDs(ctx context.Context, ids []string) ([]model.Contact, error)
	ListAll(ctx context.Context) ([]model.Contact, error)
	// ListByTags returns contacts carrying at least one of tags; no tags means all contacts.
	ListByTags(ctx context.Context, tags []string) ([]model.Contact, error)
}

// ContactRepository is the postgres implementation
type ContactRepository struct {
	DB *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{DB: db}
}

const contactColumns = `id, first_name, last_name, email, company, industry, location, lead_source, tags,
        is_subscribed, last_email_sent, engagement_score`

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	query := `
        INSERT INTO contacts (first_name, last_name, email, company, industry, location, lead_source, tags,
            is_subscribed, last_email_sent, engagement_score)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		c.FirstName, c.LastName, c.Email, c.Company, c.Industry, c.Location, c.LeadSource, pq.Array(c.Tags),
		c.IsSubscribed, c.LastEmailSent, c.EngagementScore,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	c.ID = strconv.FormatInt(id, 10)
	return nil
}

// GetByID fetches a contact by ID
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, appErrors.NewContactNotFound(id)
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, key)
	c, err := scanContact(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewContactNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *ContactRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Contact, error) {
	if len(ids) == 0 {
		return []model.Contact{}, nil
	}
	keys := make([]int64, 0, len(ids))
	for _, id := range ids {
		key, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, appErrors.NewContactNotFound(id)
		}
		keys = append(keys, key)
	}

	found, err := r.query(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ANY($1)`, pq.Array(keys))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Contact, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	contacts := make([]model.Contact, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, appErrors.NewContactNotFound(id)
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// ListAll fetches all contacts
func (r *ContactRepository) ListAll(ctx context.Context) ([]model.Contact, error) {
	return r.query(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY id ASC`)
}

func (r *ContactRepository) ListByTags(ctx context.Context, tags []string) ([]model.Contact, error) {
	if len(tags) == 0 {
		return r.ListAll(ctx)
	}
	return r.query(ctx, `SELECT `+contactColumns+` FROM contacts WHERE tags && $1 ORDER BY id ASC`, pq.Array(tags))
}

func (r *ContactRepository) query(ctx context.Context, query string, args ...any) ([]model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func scanContact(row rowScanner) (*model.Contact, error) {
	var c model.Contact
	var id int64
	var tags pq.StringArray
	if err := row.Scan(
		&id, &c.FirstName, &c.LastName, &c.Email, &c.Company, &c.Industry, &c.Location, &c.LeadSource, &tags,
		&c.IsSubscribed, &c.LastEmailSent, &c.EngagementScore,
	); err != nil {
		return nil, err
	}
	c.ID = strconv.FormatInt(id, 10)
	c.Tags = []string(tags)
	return &c, nil
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
