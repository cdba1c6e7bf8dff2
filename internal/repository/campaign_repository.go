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

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	// ListCampaigns returns campaigns in creation order. A limit <= 0 returns everything
	// after offset; an empty status matches all statuses.
	ListCampaigns(ctx context.Context, offset, limit int, status model.CampaignStatus) ([]*model.Campaign, int, error)
	Update(ctx context.Context, c *model.Campaign) error
	UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error
	// UpdateProgress stores status and sent count together.
	UpdateProgress(ctx context.Context, id string, status model.CampaignStatus, sentCount int) error
	// Touch bumps updated_at of a campaign that is being sent.
	Touch(ctx context.Context, id string) error
	// PauseStale moves every sending campaign last updated before cutoff to paused
	// and returns the campaigns it changed.
	PauseStale(ctx context.Context, cutoff time.Time) ([]*model.Campaign, error)
	Delete(ctx context.Context, id string) error
}

type CampaignRepository struct {
	DB *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

const campaignColumns = `id, name, subject, content, from_name, from_email, target_audience, status,
        template_id, scheduled_at, created_at, created_by, updated_at, sent_count, open_rate, click_rate,
        unsubscribe_count`

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	query := `
        INSERT INTO campaigns (name, subject, content, from_name, from_email, target_audience, status,
            template_id, scheduled_at, created_at, created_by, sent_count, open_rate, click_rate, unsubscribe_count)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id
    `
	var id int64
	err := r.DB.QueryRowContext(ctx, query,
		c.Name, c.Subject, c.Content, c.FromName, c.FromEmail, pq.Array(c.TargetAudience), c.Status,
		c.TemplateID, c.ScheduledAt, c.CreatedAt, c.CreatedBy, c.SentCount, c.OpenRate, c.ClickRate,
		c.UnsubscribeCount,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	c.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, key)
	c, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status model.CampaignStatus) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += " ORDER BY id ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, limit)
		argPos++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, offset)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	key, err := strconv.ParseInt(c.ID, 10, 64)
	if err != nil {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	query := `
        UPDATE campaigns
        SET name=$1, subject=$2, content=$3, from_name=$4, from_email=$5, target_audience=$6, status=$7,
            template_id=$8, scheduled_at=$9, open_rate=$10, click_rate=$11, unsubscribe_count=$12,
            updated_at=NOW()
        WHERE id=$13
    `
	res, err := r.DB.ExecContext(ctx, query,
		c.Name, c.Subject, c.Content, c.FromName, c.FromEmail, pq.Array(c.TargetAudience), c.Status,
		c.TemplateID, c.ScheduledAt, c.OpenRate, c.ClickRate, c.UnsubscribeCount, key,
	)
	return affectedOrNotFound(res, err, appErrors.NewCampaignNotFound(c.ID))
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, id string, status model.CampaignStatus) error {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return appErrors.NewCampaignNotFound(id)
	}
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, status, time.Now(), key)
	return affectedOrNotFound(res, err, appErrors.NewCampaignNotFound(id))
}

func (r *CampaignRepository) UpdateProgress(ctx context.Context, id string, status model.CampaignStatus, sentCount int) error {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return appErrors.NewCampaignNotFound(id)
	}
	query := `UPDATE campaigns SET status=$1, sent_count=$2, updated_at=$3 WHERE id=$4`
	res, err := r.DB.ExecContext(ctx, query, status, sentCount, time.Now(), key)
	return affectedOrNotFound(res, err, appErrors.NewCampaignNotFound(id))
}

func (r *CampaignRepository) Touch(ctx context.Context, id string) error {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return appErrors.NewCampaignNotFound(id)
	}
	query := `UPDATE campaigns SET updated_at=$1 WHERE id=$2 AND status=$3`
	_, err = r.DB.ExecContext(ctx, query, time.Now(), key, model.CampaignStatusSending)
	return err
}

func (r *CampaignRepository) PauseStale(ctx context.Context, cutoff time.Time) ([]*model.Campaign, error) {
	query := `
        UPDATE campaigns SET status=$1, updated_at=$2
        WHERE status=$3 AND COALESCE(updated_at, created_at) < $4
        RETURNING ` + campaignColumns
	rows, err := r.DB.QueryContext(ctx, query,
		model.CampaignStatusPaused, time.Now(), model.CampaignStatusSending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("pause stale campaigns: %w", err)
	}
	defer rows.Close()

	paused := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		paused = append(paused, c)
	}
	return paused, rows.Err()
}

func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return appErrors.NewCampaignNotFound(id)
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, key)
	return affectedOrNotFound(res, err, appErrors.NewCampaignNotFound(id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	var id int64
	var audience pq.StringArray
	var templateID sql.NullString
	var createdBy sql.NullString
	if err := row.Scan(
		&id, &c.Name, &c.Subject, &c.Content, &c.FromName, &c.FromEmail, &audience, &c.Status,
		&templateID, &c.ScheduledAt, &c.CreatedAt, &createdBy, &c.UpdatedAt, &c.SentCount, &c.OpenRate,
		&c.ClickRate, &c.UnsubscribeCount,
	); err != nil {
		return nil, err
	}
	c.ID = strconv.FormatInt(id, 10)
	c.TargetAudience = []string(audience)
	c.TemplateID = templateID.String
	c.CreatedBy = createdBy.String
	return &c, nil
}

func affectedOrNotFound(res sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
