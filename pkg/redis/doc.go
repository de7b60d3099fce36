// Package redis connects to Redis from environment configuration.
//
// Redis is optional for the admin backend: it only backs the distributed
// tenant lock used when several instances run side by side. An empty
// REDIS_URL disables it.
package redis
