package handlers

import (
	"time"

	"github.com/futig/traffic-law-assistant/internal/entity"
	"github.com/patrickmn/go-cache"
)

// TestCache keeps delivered tests around for the export button
type TestCache struct {
	tests *cache.Cache
}

func NewTestCache(ttl time.Duration) *TestCache {
	return &TestCache{tests: cache.New(ttl, 2*ttl)}
}

func (c *TestCache) Put(test *entity.GeneratedTest) {
	c.tests.SetDefault(test.TestID, test)
}

func (c *TestCache) Get(testID string) (*entity.GeneratedTest, bool) {
	v, ok := c.tests.Get(testID)
	if !ok {
		return nil, false
	}
	return v.(*entity.GeneratedTest), true
}
