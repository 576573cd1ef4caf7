package config

// CacheConfig defines settings for the venue/availability cache.  When
// Enabled is false or no Redis client can be constructed, the engine
// runs against a no-op cache and every read goes to the store.  Prefix
// namespaces all cache keys so multiple deployments can share a Redis.
type CacheConfig struct {
	Enabled bool
	Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: getenv("CACHE_ENABLED", "true") == "true",
		Prefix:  getenv("CACHE_PREFIX", "fieldpass"),
	}
}
