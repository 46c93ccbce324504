// Package cache provides an in-process LRU cache with TTL, used to keep
// hot per-user reads off the database.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	DeletePrefix(prefix string) int
	Size() int
}

// UserKey builds a cache key scoped to one user. Dashboards and lists are
// cached under "<kind>:<userID>..." so a write can drop everything for
// that user with one DeletePrefix call.
func UserKey(kind, userID string, parts ...string) string {
	b := strings.Builder{}
	b.WriteString(kind)
	b.WriteByte(':')
	b.WriteString(userID)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// Cleaner interface for caches that support expiry sweeps
type Cleaner interface {
	CleanExpired() int
}

// StartCleanup sweeps expired entries on an interval until ctx is done.
func StartCleanup(ctx context.Context, interval time.Duration, caches ...Cleaner) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for _, c := range caches {
					c.CleanExpired()
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
