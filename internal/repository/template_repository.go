package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/campaign-mailer/internal/errors"
	"github.com/unclebandit/campaign-mailer/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(ctx context.Context, t *model.Template) error
	GetByID(ctx context.Context, id string) (*model.Template, error)
	List(ctx context.Context) ([]*model.Template, error)
	Update(ctx context.Context, t *model.Template) error
	Delete(ctx context.Context, id string) error
}

type TemplateRepository struct {
	DB *sql.DB
}

func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{DB: db}
}

const templateColumns = `id, name, subject, content, category, variables, is_active, created_at`

func (r *TemplateRepository) Create(ctx context.Context, t *model.Template) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	query := `
        INSERT INTO email_templates (name, subject, content, category, variables, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		t.Name, t.Subject, t.Content, t.Category, pq.Array(t.Variables), t.IsActive, t.CreatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	t.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*model.Template, error) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, appErrors.NewTemplateNotFound(id)
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE id=$1`, key)
	t, err := scanTemplate(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewTemplateNotFound(id)
		}
		return nil, err
	}
	return t, nil
}

func (r *TemplateRepository) List(ctx context.Context) ([]*model.Template, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+templateColumns+` FROM email_templates ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*model.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) Update(ctx context.Context, t *model.Template) error {
	key, err := strconv.ParseInt(t.ID, 10, 64)
	if err != nil {
		return appErrors.NewTemplateNotFound(t.ID)
	}
	query := `
        UPDATE email_templates
        SET name=$1, subject=$2, content=$3, category=$4, variables=$5, is_active=$6
        WHERE id=$7
    `
	res, err := r.DB.ExecContext(ctx, query,
		t.Name, t.Subject, t.Content, t.Category, pq.Array(t.Variables), t.IsActive, key,
	)
	return affectedOrNotFound(res, err, appErrors.NewTemplateNotFound(t.ID))
}

func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return appErrors.NewTemplateNotFound(id)
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM email_templates WHERE id=$1`, key)
	return affectedOrNotFound(res, err, appErrors.NewTemplateNotFound(id))
}

func scanTemplate(row rowScanner) (*model.Template, error) {
	var t model.Template
	var id int64
	var variables pq.StringArray
	if err := row.Scan(&id, &t.Name, &t.Subject, &t.Content, &t.Category, &variables, &t.IsActive, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ID = strconv.FormatInt(id, 10)
	t.Variables = []string(variables)
	return &t, nil
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
