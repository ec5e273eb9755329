package identity

import (
	"fmt"
	"sync"
)

// uidCache is a bidirectional map between profile IDs and UIDs. Both
// directions are replaced or mutated together under one lock, so the mapping
// stays a bijection. One instance serves users, a second one serves groups.
type uidCache struct {
	mu        sync.RWMutex
	byProfile map[ProfileID]string
	byUID     map[string]ProfileID
}

func newUIDCache() *uidCache {
	return &uidCache{
		byProfile: make(map[ProfileID]string),
		byUID:     make(map[string]ProfileID),
	}
}

// replaceAll swaps in a freshly loaded mapping.
func (c *uidCache) replaceAll(entries map[ProfileID]string) {
	byProfile := make(map[ProfileID]string, len(entries))
	byUID := make(map[string]ProfileID, len(entries))
	for pid, uid := range entries {
		byProfile[pid] = uid
		byUID[uid] = pid
	}

	c.mu.Lock()
	c.byProfile = byProfile
	c.byUID = byUID
	c.mu.Unlock()
}

// put records one identity in both directions.
func (c *uidCache) put(pid ProfileID, uid string) {
	c.mu.Lock()
	c.byProfile[pid] = uid
	c.byUID[uid] = pid
	c.mu.Unlock()
}

// removeByProfile drops one identity addressed by profile ID.
func (c *uidCache) removeByProfile(pid ProfileID) {
	c.mu.Lock()
	if uid, ok := c.byProfile[pid]; ok {
		delete(c.byProfile, pid)
		delete(c.byUID, uid)
	}
	c.mu.Unlock()
}

// removeDomain drops every identity of a domain.
func (c *uidCache) removeDomain(domainID string) {
	c.mu.Lock()
	for pid, uid := range c.byProfile {
		if pid.DomainID == domainID {
			delete(c.byProfile, pid)
			delete(c.byUID, uid)
		}
	}
	c.mu.Unlock()
}

// uid resolves a profile ID to its UID.
func (c *uidCache) uid(pid ProfileID) (string, error) {
	c.mu.RLock()
	uid, ok := c.byProfile[pid]
	c.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCacheMiss, pid)
	}

	return uid, nil
}

// profile resolves a UID back to its profile ID.
func (c *uidCache) profile(uid string) (ProfileID, error) {
	c.mu.RLock()
	pid, ok := c.byUID[uid]
	c.mu.RUnlock()

	if !ok {
		return ProfileID{}, fmt.Errorf("%w: uid %s", ErrCacheMiss, uid)
	}

	return pid, nil
}

// has reports whether the profile ID is present.
func (c *uidCache) has(pid ProfileID) bool {
	c.mu.RLock()
	_, ok := c.byProfile[pid]
	c.mu.RUnlock()

	return ok
}

// len reports the number of cached identities.
func (c *uidCache) len() int {
	c.mu.RLock()
	n := len(c.byProfile)
	c.mu.RUnlock()

	return n
}
