package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"medicohub-assessment-service/internal/domain"
)

// AssessmentLoader fetches assessment content from a backing store.
type AssessmentLoader interface {
	LoadAssessment(ctx context.Context, id string) (domain.Assessment, error)
}

// AssessmentCache caches assessments with TTL to avoid repeated store
// hits on the submission hot path.
type AssessmentCache struct {
	loader AssessmentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedAssessment
}

type cachedAssessment struct {
	assessment domain.Assessment
	expiresAt  time.Time
}

func NewAssessmentCache(loader AssessmentLoader, ttl time.Duration) *AssessmentCache {
	return &AssessmentCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedAssessment),
	}
}

func (c *AssessmentCache) GetAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.assessment, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.assessment, nil
		}
		c.mu.RUnlock()

		assessment, err := c.loader.LoadAssessment(ctx, id)
		if err != nil {
			return domain.Assessment{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedAssessment{
			assessment: assessment,
			expiresAt:  now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

func (c *AssessmentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
