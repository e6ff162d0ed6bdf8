package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/habitforge/habitforge/internal/domain"
)

const (
	chatCachePrefix = "chats:"
	chatCacheTTL    = 5 * time.Minute
)

// ChatListCache caches each owner's chat listing so the sidebar does not
// hit postgres on every refresh. Invalidated whenever a chat is created or
// its preview is updated.
type ChatListCache struct {
	client *Client
}

// NewChatListCache creates a new chat list cache
func NewChatListCache(client *Client) *ChatListCache {
	return &ChatListCache{client: client}
}

// Get retrieves the cached chat list for an owner. A miss returns nil, nil.
func (c *ChatListCache) Get(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	key := fmt.Sprintf("%s%s", chatCachePrefix, userID.String())

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var chats []domain.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat list: %w", err)
	}

	return chats, nil
}

// Set caches the chat list for an owner
func (c *ChatListCache) Set(ctx context.Context, userID uuid.UUID, chats []domain.Chat) error {
	key := fmt.Sprintf("%s%s", chatCachePrefix, userID.String())

	data, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("failed to marshal chat list: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, chatCacheTTL).Err()
}

// Invalidate removes the cached chat list for an owner
func (c *ChatListCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("%s%s", chatCachePrefix, userID.String())
	return c.client.rdb.Del(ctx, key).Err()
}
