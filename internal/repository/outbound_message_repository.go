package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/unclebandit/campaign-mailer/internal/model"
)

// OutboundMessageRepositoryInterface stores the per-recipient delivery log.
type OutboundMessageRepositoryInterface interface {
	Create(ctx context.Context, msg *model.OutboundMessage) error
	ListByCampaign(ctx context.Context, campaignID string) ([]model.OutboundMessage, error)
	GetCampaignStats(ctx context.Context, campaignID string) (map[string]int, error)
}

type OutboundMessageRepository struct {
	DB *sql.DB
}

func NewOutboundMessageRepository(db *sql.DB) *OutboundMessageRepository {
	return &OutboundMessageRepository{DB: db}
}

// Create inserts a new outbound message into the database and sets its ID
func (r *OutboundMessageRepository) Create(ctx context.Context, msg *model.OutboundMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	query := `
        INSERT INTO outbound_messages (campaign_id, contact_id, email, status, last_error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	var id int64
	if err := r.DB.QueryRowContext(ctx, query,
		msg.CampaignID, msg.ContactID, msg.Email, msg.Status, msg.LastError, msg.CreatedAt,
	).Scan(&id); err != nil {
		return err
	}
	msg.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *OutboundMessageRepository) ListByCampaign(ctx context.Context, campaignID string) ([]model.OutboundMessage, error) {
	query := `
        SELECT id, campaign_id, contact_id, email, status, last_error, created_at
        FROM outbound_messages
        WHERE campaign_id=$1
        ORDER BY id ASC
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []model.OutboundMessage{}
	for rows.Next() {
		var msg model.OutboundMessage
		var id int64
		if err := rows.Scan(&id, &msg.CampaignID, &msg.ContactID, &msg.Email, &msg.Status, &msg.LastError, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.ID = strconv.FormatInt(id, 10)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (r *OutboundMessageRepository) GetCampaignStats(ctx context.Context, campaignID string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM outbound_messages WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := newStats()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}

func newStats() map[string]int {
	return map[string]int{
		"total":                      0,
		string(model.OutboundSent):    0,
		string(model.OutboundFailed):  0,
		string(model.OutboundSkipped): 0,
	}
}

var _ OutboundMessageRepositoryInterface = (*OutboundMessageRepository)(nil)
