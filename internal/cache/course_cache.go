package cache

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"coursepilot-backend/internal/models"
)

// Short-TTL cache of built courses keyed by topic. Best-effort only: a cache
// failure never fails a build, it just means redundant discovery work.

type CourseCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCourseCache(redisClient *redis.Client, ttl time.Duration) *CourseCache {
	return &CourseCache{redis: redisClient, ttl: ttl}
}

func cacheKey(topic string) string {
	return "course:" + strings.ToLower(strings.TrimSpace(topic))
}

func (c *CourseCache) Get(ctx context.Context, topic string) (*models.Course, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, cacheKey(topic)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Course cache read failed for topic %q: %v", topic, err)
		}
		return nil, false
	}

	var course models.Course
	if err := json.Unmarshal(data, &course); err != nil {
		log.Printf("Course cache entry for topic %q is corrupt, ignoring: %v", topic, err)
		return nil, false
	}
	return &course, true
}

func (c *CourseCache) Set(ctx context.Context, topic string, course *models.Course) {
	if c == nil || c.redis == nil || course == nil {
		return
	}

	data, err := json.Marshal(course)
	if err != nil {
		log.Printf("Course cache marshal failed for topic %q: %v", topic, err)
		return
	}

	if err := c.redis.Set(ctx, cacheKey(topic), data, c.ttl).Err(); err != nil {
		log.Printf("Course cache write failed for topic %q: %v", topic, err)
	}
}
