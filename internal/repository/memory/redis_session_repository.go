package memory

import (
	"context"
	"encoding/json"
	"time"

	"contactiq-be/internal/pkg/logger"
	"contactiq-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "assistant:session:"

// RedisSessionRepository shares session state across instances. Used when
// SESSION_STORE=redis; single-node deployments keep the in-process cache.
type RedisSessionRepository struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewRedisSessionRepository(rdb *redis.Client, ttl time.Duration, log logger.ILogger) *RedisSessionRepository {
	if ttl == 0 {
		ttl = 1 * time.Hour
	}
	return &RedisSessionRepository{
		rdb:    rdb,
		ttl:    ttl,
		logger: log,
	}
}

func (r *RedisSessionRepository) Save(session *store.Session) {
	data, err := json.Marshal(session)
	if err != nil {
		r.logger.Error("SESSION", "Failed to marshal session", map[string]interface{}{"error": err.Error(), "session_id": session.ID})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.rdb.Set(ctx, sessionKeyPrefix+session.ID, data, r.ttl).Err(); err != nil {
		r.logger.Error("SESSION", "Failed to save session to redis", map[string]interface{}{"error": err.Error(), "session_id": session.ID})
	}
}

func (r *RedisSessionRepository) Get(sessionID string) (*store.Session, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := r.rdb.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Error("SESSION", "Failed to read session from redis", map[string]interface{}{"error": err.Error(), "session_id": sessionID})
		}
		return nil, false
	}

	var session store.Session
	if err := json.Unmarshal(data, &session); err != nil {
		r.logger.Error("SESSION", "Failed to unmarshal session", map[string]interface{}{"error": err.Error(), "session_id": sessionID})
		return nil, false
	}
	return &session, true
}

func (r *RedisSessionRepository) Delete(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		r.logger.Error("SESSION", "Failed to delete session from redis", map[string]interface{}{"error": err.Error(), "session_id": sessionID})
	}
}
