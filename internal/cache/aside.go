package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BodiAli/blog-api/internal/middleware"
	"github.com/BodiAli/blog-api/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	postKeyPrefix     = "post:%d"
	postsListVersion  = "posts:list:version"
	postsListKeyShape = "posts:list:v%d:%s:%d"
	userKeyPrefix     = "user:%d"
	topicsKey         = "topics:all"
)

// TTLs for cached read models.
const (
	PostTTL      = 10 * time.Minute
	PostsListTTL = 2 * time.Minute
	UserTTL      = 5 * time.Minute
	TopicsTTL    = 5 * time.Minute
)

// PostKey is the anonymous post detail key.
func PostKey(postID uint) string {
	return fmt.Sprintf(postKeyPrefix, postID)
}

// UserKey is the public profile key.
func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

// TopicsKey is the topic listing key.
func TopicsKey() string {
	return topicsKey
}

// PostsListKey is the anonymous list page key under the current list version.
// Bumping the version orphans every page at once; old pages expire by TTL.
func PostsListKey(ctx context.Context, topic string, page int) string {
	var version int64
	if client != nil {
		v, err := client.Get(ctx, postsListVersion).Int64()
		if err == nil {
			version = v
		}
	}
	return fmt.Sprintf(postsListKeyShape, version, strings.ToLower(strings.TrimSpace(topic)), page)
}

// Aside loads key into dest from Redis, or calls load and caches dest on a miss.
// Without a client, or on a Redis error, it falls through to load.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if client == nil {
		return load()
	}

	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			observability.CacheLookups.WithLabelValues("hit").Inc()
			return nil
		}
		observability.CacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		observability.CacheLookups.WithLabelValues("miss").Inc()
	default:
		observability.CacheLookups.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := load(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate removes keys. Errors are logged, never returned.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidate failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// InvalidatePost drops the post detail and every cached list page.
func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
	InvalidatePostsList(ctx)
}

// InvalidatePostsList bumps the list version.
func InvalidatePostsList(ctx context.Context) {
	if client == nil {
		return
	}
	if err := client.Incr(ctx, postsListVersion).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache version bump failed", slog.String("error", err.Error()))
	}
}
