package api

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"lingua-client/internal/domain"
)

// CatalogSource is the upstream for catalog reads; *Client implements it.
type CatalogSource interface {
	Exercises(ctx context.Context, courseID int64) ([]domain.Exercise, error)
	CourseMeta(ctx context.Context) (domain.CourseMetaInfo, error)
}

// Catalog caches exercise lists and course meta-info with a TTL so a
// practice session fetches its exercise list once. Concurrent misses for
// the same course collapse into a single upstream request.
type Catalog struct {
	source CatalogSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand

	mu        sync.RWMutex
	exercises map[int64]cachedExercises
	meta      *cachedMeta
}

type cachedExercises struct {
	list      []domain.Exercise
	expiresAt time.Time
}

type cachedMeta struct {
	meta      domain.CourseMetaInfo
	expiresAt time.Time
}

func NewCatalog(source CatalogSource, ttl time.Duration) *Catalog {
	return &Catalog{
		source:    source,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		exercises: make(map[int64]cachedExercises),
	}
}

// Exercises returns the ordered exercise list for a course, serving repeat
// reads from cache until the TTL lapses.
func (c *Catalog) Exercises(ctx context.Context, courseID int64) ([]domain.Exercise, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.exercises[courseID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.list, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("exercises:"+strconv.FormatInt(courseID, 10), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.exercises[courseID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.list, nil
		}
		c.mu.RUnlock()

		list, err := c.source.Exercises(ctx, courseID)
		if err != nil {
			return nil, err
		}

		ttl := c.ttlWithJitter()
		c.mu.Lock()
		c.exercises[courseID] = cachedExercises{list: list, expiresAt: now.Add(ttl)}
		c.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Exercise), nil
}

// MetaInfo returns the catalog filter values, cached like exercise lists.
func (c *Catalog) MetaInfo(ctx context.Context) (domain.CourseMetaInfo, error) {
	now := c.clock()

	c.mu.RLock()
	if c.meta != nil && c.meta.expiresAt.After(now) {
		meta := c.meta.meta
		c.mu.RUnlock()
		return meta, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("meta-info", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.meta != nil && c.meta.expiresAt.After(now) {
			meta := c.meta.meta
			c.mu.RUnlock()
			return meta, nil
		}
		c.mu.RUnlock()

		meta, err := c.source.CourseMeta(ctx)
		if err != nil {
			return domain.CourseMetaInfo{}, err
		}

		ttl := c.ttlWithJitter()
		c.mu.Lock()
		c.meta = &cachedMeta{meta: meta, expiresAt: now.Add(ttl)}
		c.mu.Unlock()
		return meta, nil
	})
	if err != nil {
		return domain.CourseMetaInfo{}, err
	}
	return result.(domain.CourseMetaInfo), nil
}

// Invalidate drops the cached exercise list for a course, forcing the next
// read to hit the API.
func (c *Catalog) Invalidate(courseID int64) {
	c.mu.Lock()
	delete(c.exercises, courseID)
	c.mu.Unlock()
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	c.rndMu.Lock()
	jitter := time.Duration(c.rnd.Int63n(int64(c.ttl)/10 + 1))
	c.rndMu.Unlock()
	return c.ttl + jitter
}
