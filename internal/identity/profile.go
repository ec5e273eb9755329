package identity

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	profileCacheSize = 4096
	profileCacheTTL  = 15 * time.Minute
)

// profileCache holds the lazily computed per-user sheets. Entries expire so
// out-of-band database edits eventually surface; mutations through the
// manager invalidate eagerly.
type profileCache struct {
	mu   sync.Mutex
	info *expirable.LRU[ProfileID, *PersonalInfo]
	data *expirable.LRU[ProfileID, *ProfileData]
}

func newProfileCache() *profileCache {
	return &profileCache{
		info: expirable.NewLRU[ProfileID, *PersonalInfo](profileCacheSize, nil, profileCacheTTL),
		data: expirable.NewLRU[ProfileID, *ProfileData](profileCacheSize, nil, profileCacheTTL),
	}
}

// personalInfo returns the cached sheet or computes it via load.
// The lock serializes loads so one miss does not fan out.
func (c *profileCache) personalInfo(pid ProfileID, load func() (*PersonalInfo, error)) (*PersonalInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.info.Get(pid); ok {
		return v, nil
	}

	v, err := load()
	if err != nil {
		return nil, err
	}
	c.info.Add(pid, v)

	return v, nil
}

// profileData returns the cached sheet or computes it via load.
func (c *profileCache) profileData(pid ProfileID, load func() (*ProfileData, error)) (*ProfileData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.data.Get(pid); ok {
		return v, nil
	}

	v, err := load()
	if err != nil {
		return nil, err
	}
	c.data.Add(pid, v)

	return v, nil
}

// remove drops both sheets of one user.
func (c *profileCache) remove(pid ProfileID) {
	c.mu.Lock()
	c.info.Remove(pid)
	c.data.Remove(pid)
	c.mu.Unlock()
}

// removeDomain drops the sheets of every user of a domain.
func (c *profileCache) removeDomain(domainID string) {
	c.mu.Lock()
	for _, pid := range c.info.Keys() {
		if pid.DomainID == domainID {
			c.info.Remove(pid)
		}
	}
	for _, pid := range c.data.Keys() {
		if pid.DomainID == domainID {
			c.data.Remove(pid)
		}
	}
	c.mu.Unlock()
}

// purge drops everything.
func (c *profileCache) purge() {
	c.mu.Lock()
	c.info.Purge()
	c.data.Purge()
	c.mu.Unlock()
}
