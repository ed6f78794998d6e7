// Package redishistory provides a Redis-backed relay.HistoryStore for
// session logs that must survive process restarts or be shared between
// processes.
package redishistory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/relaykit/relay"
)

// Turns are stored one JSON document per list element under a single key
// per session, so RPUSH/LRANGE give append-only ordering and
// read-after-write consistency for free.
const keyPrefix = "relay:session:"

// Config holds configuration for the Redis history store.
type Config struct {
	Addr     string
	Password string
	DB       int
	// TTL expires idle sessions. Zero keeps them forever.
	TTL time.Duration
}

// Store is a Redis-backed history store.
type Store struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, cfg.TTL, logger), nil
}

// NewWithClient wraps an existing Redis client. The caller keeps ownership
// of the client's lifecycle.
func NewWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, logger: logger, ttl: ttl}
}

// Append adds a turn to the session's list, creating it on first use.
func (s *Store) Append(ctx context.Context, sessionID string, turn relay.Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	key := keyPrefix + sessionID
	if err := s.client.RPush(ctx, key, payload).Err(); err != nil {
		s.logger.Error("failed to append turn",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to append turn: %w", err)
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			s.logger.Warn("failed to refresh session TTL",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}

	s.logger.Debug("appended turn",
		zap.String("session_id", sessionID),
		zap.String("role", turn.Role),
	)
	return nil
}

// Recent returns up to the last 2*k turns, oldest first. Unknown sessions
// yield an empty slice.
func (s *Store) Recent(ctx context.Context, sessionID string, k int) ([]relay.Turn, error) {
	if k <= 0 {
		return []relay.Turn{}, nil
	}

	raw, err := s.client.LRange(ctx, keyPrefix+sessionID, int64(-2*k), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	turns := make([]relay.Turn, 0, len(raw))
	for _, entry := range raw {
		var turn relay.Turn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			return nil, fmt.Errorf("corrupt turn in session %s: %w", sessionID, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear removes the session's log entirely.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
