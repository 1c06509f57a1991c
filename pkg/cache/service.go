package cache

import "time"

// CacheService defines the behavior for caching mechanisms
type CacheService interface {
	// Get returns the value and true when key is present and not expired.
	Get(key string) (interface{}, bool)

	// Set stores value for duration; a non-positive duration uses the default TTL.
	Set(key string, value interface{}, duration time.Duration)

	Delete(key string)

	// DeletePrefix drops every key starting with prefix.
	DeletePrefix(prefix string)

	// Flush removes all items
	Flush()
}
