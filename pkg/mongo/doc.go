// Package mongo connects to MongoDB using environment configuration.
//
// Connect retries the initial connection and ping a bounded number of times,
// which covers the window where the database container starts after the
// service. Healthcheck returns a probe for the readiness endpoint.
//
// An empty MONGODB_URL means the deployment has no datastore; callers check
// Config.Enabled and fall back to a disabled document store.
package mongo
