package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aniladanir/wa-ai-relay/internal/cache"
	"github.com/aniladanir/wa-ai-relay/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sentMessageTTL bounds how long delivered gateway ids stay in cache
const sentMessageTTL = 24 * time.Hour

type Repository interface {
	RecordTurn(ctx context.Context, turn *domain.ConversationTurn) error
	ListTurns(ctx context.Context, limit, offset int) ([]domain.ConversationTurn, int64, error)
	CacheMessage(ctx context.Context, msgID, phoneNumber string, sentTime time.Time) error
}

type repo struct {
	db    *gorm.DB
	cache cache.Cache
}

// NewMessageRepository creates a turn repository. cache may be nil, in which
// case CacheMessage is a no-op.
func NewMessageRepository(db *gorm.DB, cache cache.Cache) Repository {
	return &repo{db: db, cache: cache}
}

// RecordTurn inserts a turn; the store assigns its id
func (r *repo) RecordTurn(ctx context.Context, turn *domain.ConversationTurn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(turn).Error
}

// ListTurns returns a page of turns, newest first, with the total count
func (r *repo) ListTurns(ctx context.Context, limit, offset int) ([]domain.ConversationTurn, int64, error) {
	var (
		turns []domain.ConversationTurn
		total int64
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.ConversationTurn{}).Count(&total).Error; err != nil {
			return err
		}

		return tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
			Limit(limit).Offset(offset).
			Find(&turns).Error
	})

	return turns, total, err
}

// CacheMessage writes given message attributes to cache
func (r *repo) CacheMessage(ctx context.Context, msgID, phoneNumber string, sentTime time.Time) error {
	if r.cache == nil {
		return nil
	}

	key := fmt.Sprintf("sent_msg:%s", msgID)

	value := map[string]any{
		"messageId":   msgID,
		"phoneNumber": phoneNumber,
		"sentAt":      sentTime,
	}

	jsonVal, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, key, string(jsonVal), sentMessageTTL)
}
