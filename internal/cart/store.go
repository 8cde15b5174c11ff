// Package cart keeps each session's cart in Redis.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/storefront/internal/catalog"
)

const (
	keyPrefix      = "cart:"
	productField   = "p:"
	quantityField  = "q:"
	defaultCartTTL = 720 * time.Hour
)

// ErrNoSession is returned when no session id is supplied.
var ErrNoSession = errors.New("cart: session id required")

// Store persists carts as one Redis hash per session.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore instantiates the store. Carts expire ttl after the last write.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &Store{client: client, ttl: ttl}
}

// Add puts one unit of p into the session's cart.
func (s *Store) Add(ctx context.Context, sessionID string, p catalog.Product) error {
	if sessionID == "" {
		return ErrNoSession
	}
	snapshot, err := json.Marshal(p)
	if err != nil {
		return err
	}
	key := keyPrefix + sessionID
	id := strconv.FormatInt(p.ID, 10)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, productField+id, snapshot)
		pipe.HIncrBy(ctx, key, quantityField+id, 1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cart: add product %d: %w", p.ID, err)
	}
	return nil
}

// Lines returns the cart sorted by product id.
func (s *Store) Lines(ctx context.Context, sessionID string) ([]Line, error) {
	if sessionID == "" {
		return nil, nil
	}
	fields, err := s.client.HGetAll(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		return nil, fmt.Errorf("cart: load: %w", err)
	}

	byID := make(map[string]*Line)
	lineFor := func(id string) *Line {
		l, ok := byID[id]
		if !ok {
			l = &Line{}
			byID[id] = l
		}
		return l
	}
	for field, value := range fields {
		switch {
		case strings.HasPrefix(field, productField):
			l := lineFor(strings.TrimPrefix(field, productField))
			if err := json.Unmarshal([]byte(value), &l.Product); err != nil {
				return nil, fmt.Errorf("cart: decode %s: %w", field, err)
			}
		case strings.HasPrefix(field, quantityField):
			qty, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("cart: decode %s: %w", field, err)
			}
			lineFor(strings.TrimPrefix(field, quantityField)).Quantity = qty
		}
	}

	lines := make([]Line, 0, len(byID))
	for _, l := range byID {
		if l.Quantity > 0 {
			lines = append(lines, *l)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Product.ID < lines[j].Product.ID })
	return lines, nil
}

// Summary loads the cart with its totals.
func (s *Store) Summary(ctx context.Context, sessionID string) (Summary, error) {
	lines, err := s.Lines(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	return NewSummary(lines), nil
}

// Count returns the number of units in the cart.
func (s *Store) Count(ctx context.Context, sessionID string) (int, error) {
	lines, err := s.Lines(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return NewSummary(lines).Count, nil
}

// Clear empties the session's cart.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
