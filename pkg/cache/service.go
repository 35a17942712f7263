package cache

import "time"

// NoExpiration keeps an item until it is deleted or flushed.
const NoExpiration time.Duration = -1

// CacheService defines the behavior for caching mechanisms
type CacheService interface {
	// Get retrieves a value from the cache
	// Returns value, true if found
	// Returns nil, false if not found
	Get(key string) (interface{}, bool)

	// Set adds a value to the cache with a duration
	Set(key string, value interface{}, duration time.Duration)

	// Add stores the value only if the key is absent or expired
	Add(key string, value interface{}, duration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string)

	// ItemCount reports the number of items, including expired ones not yet cleaned up
	ItemCount() int

	// DeleteExpired drops every expired item now
	DeleteExpired()

	// Flush removes all items
	Flush()
}
