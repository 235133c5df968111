package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"voyagr/models"
	"voyagr/rdx"
)

// Guest history lives in a Redis list per guest ID and expires on its
// own; nothing ever copies it into Mongo.
const guestHistoryTTL = 30 * 24 * time.Hour

// RedisGuestStore keeps guest chat history device-side-only, keyed by
// the client-minted guest ID.
type RedisGuestStore struct{}

func NewRedisGuestStore() *RedisGuestStore { return &RedisGuestStore{} }

func guestKey(guestID string) string { return "guest:" + guestID + ":messages" }

func guestSentKey(guestID string) string { return "guest:" + guestID + ":sent" }

// Count reports user messages sent, not total history entries, so each
// exchange costs the guest exactly one quota slot.
func (s *RedisGuestStore) Count(ctx context.Context, guestID string) (int, error) {
	n, err := rdx.Conn.Get(ctx, guestSentKey(guestID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *RedisGuestStore) Append(ctx context.Context, guestID string, msg models.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := guestKey(guestID)
	if err := rdx.Conn.RPush(ctx, key, data).Err(); err != nil {
		return err
	}
	if msg.Role == "user" {
		sent := guestSentKey(guestID)
		if err := rdx.Conn.Incr(ctx, sent).Err(); err != nil {
			return err
		}
		if err := rdx.Conn.Expire(ctx, sent, guestHistoryTTL).Err(); err != nil {
			return err
		}
	}
	return rdx.Conn.Expire(ctx, key, guestHistoryTTL).Err()
}

func (s *RedisGuestStore) Messages(ctx context.Context, guestID string) ([]models.ChatMessage, error) {
	raw, err := rdx.Conn.LRange(ctx, guestKey(guestID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	messages := make([]models.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var m models.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (s *RedisGuestStore) Clear(ctx context.Context, guestID string) error {
	return rdx.Conn.Del(ctx, guestKey(guestID), guestSentKey(guestID)).Err()
}
