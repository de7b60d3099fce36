// Package ratelimiter throttles tenants with a token bucket.
//
// Each key owns a bucket of Capacity tokens that gains RefillRate tokens every
// RefillInterval. A request that finds too few tokens is denied and consumes
// nothing. MemoryStore keeps buckets in process; RedisStore shares them across
// instances through a Lua script so the check-and-consume step stays atomic.
//
// Middleware keys buckets by the tenant in the request context and answers
// 429 with a Retry-After header once a tenant runs dry.
package ratelimiter
