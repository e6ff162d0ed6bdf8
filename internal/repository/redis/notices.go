package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	noticePrefix = "notices:"
	noticeTTL    = 7 * 24 * time.Hour
)

// NoticeStore holds durable, non-blocking warnings for an owner, such as
// "history may not be saved" after the persistence pipeline gives up. The
// conversation itself is never rolled back; the client drains these when
// convenient.
type NoticeStore struct {
	client *Client
}

// NewNoticeStore creates a new notice store
func NewNoticeStore(client *Client) *NoticeStore {
	return &NoticeStore{client: client}
}

// Push appends a notice for an owner
func (s *NoticeStore) Push(ctx context.Context, userID uuid.UUID, notice string) error {
	key := fmt.Sprintf("%s%s", noticePrefix, userID.String())

	pipe := s.client.rdb.Pipeline()
	pipe.RPush(ctx, key, notice)
	pipe.Expire(ctx, key, noticeTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push notice: %w", err)
	}
	return nil
}

// Drain returns all pending notices for an owner and clears them
func (s *NoticeStore) Drain(ctx context.Context, userID uuid.UUID) ([]string, error) {
	key := fmt.Sprintf("%s%s", noticePrefix, userID.String())

	pipe := s.client.rdb.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to drain notices: %w", err)
	}

	return rangeCmd.Val(), nil
}
