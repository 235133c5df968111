package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"voyagr/rdx"
)

// Entity kinds tracked by the index.
const (
	KindPlace = "place"
	KindTrip  = "trip"
	KindCity  = "city"
)

func invertedKey(token string) string { return "inverted:" + token }

// member encodes kind and id into one index entry, "place|p123".
func member(kind, id string) string { return kind + "|" + id }

// IndexEntity adds every token of the entity's text to the inverted
// index. Called after a place, trip, or city is created or renamed.
func IndexEntity(ctx context.Context, kind, id, text string, createdAt time.Time) error {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	pipe := rdx.Conn.Pipeline()
	score := float64(createdAt.UnixNano())
	for _, t := range tokens {
		pipe.ZAdd(ctx, invertedKey(t), redis.Z{Score: score, Member: member(kind, id)})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("search index update: %w", err)
	}
	return nil
}

// RemoveEntity drops the entity from the index for the given text.
func RemoveEntity(ctx context.Context, kind, id, text string) error {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	pipe := rdx.Conn.Pipeline()
	for _, t := range tokens {
		pipe.ZRem(ctx, invertedKey(t), member(kind, id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("search index removal: %w", err)
	}
	return nil
}

func idsForToken(ctx context.Context, token string) ([]string, error) {
	return rdx.Conn.ZRevRange(ctx, invertedKey(token), 0, -1).Result()
}

// IndexedResults intersects the per-token posting lists. Every token
// must match; newest entries come first because ZRevRange orders by
// the creation-time score.
func IndexedResults(ctx context.Context, query string, limit int) ([]string, error) {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	lists := make([][]string, len(tokens))
	for i, token := range tokens {
		ids, err := idsForToken(ctx, token)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		lists[i] = ids
	}

	sort.Slice(lists, func(i, j int) bool { return len(lists[i]) < len(lists[j]) })

	otherSets := make([]map[string]struct{}, len(lists)-1)
	for i := 1; i < len(lists); i++ {
		m := make(map[string]struct{}, len(lists[i]))
		for _, id := range lists[i] {
			m[id] = struct{}{}
		}
		otherSets[i-1] = m
	}

	out := make([]string, 0, len(lists[0]))
	for _, id := range lists[0] {
		match := true
		for _, s := range otherSets {
			if _, ok := s[id]; !ok {
				match = false
				break
			}
		}
		if match {
			out = append(out, id)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}
