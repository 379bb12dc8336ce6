package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"medicohub-assessment-service/internal/domain"
)

// AssessmentLoader fetches assessment content from the backing store.
type AssessmentLoader interface {
	LoadAssessment(ctx context.Context, id string) (domain.Assessment, error)
}

// AssessmentCache caches the full assessment document as JSON under
// assessment:{id} and falls back to the loader on a miss. The whole
// document is cached (not just correct answers) because scoring needs
// prompt text for the legacy text-matching fallback.
type AssessmentCache struct {
	client *redis.Client
	loader AssessmentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewAssessmentCache(client *redis.Client, loader AssessmentLoader, ttl time.Duration) *AssessmentCache {
	return &AssessmentCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AssessmentCache) GetAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	key := c.key(id)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var assessment domain.Assessment
		if err := json.Unmarshal(raw, &assessment); err == nil {
			return assessment, nil
		}
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var assessment domain.Assessment
			if err := json.Unmarshal(raw, &assessment); err == nil {
				return assessment, nil
			}
		}

		assessment, err := c.loader.LoadAssessment(ctx, id)
		if err != nil {
			return domain.Assessment{}, err
		}

		if raw, err := json.Marshal(assessment); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

func (c *AssessmentCache) key(id string) string {
	return "assessment:" + id
}

func (c *AssessmentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
