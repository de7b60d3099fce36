// Package config loads environment-driven configuration structs.
//
// Structs are described with caarlos0/env tags. A .env file in the working
// directory, when present, is applied once before the first parse. Each
// configuration type is parsed at most once per process and served from a
// cache afterwards, so packages can call Load from constructors without
// re-reading the environment.
//
// Types that implement Validator are validated right after parsing; a failed
// validation is not cached.
//
//	type StripeConfig struct {
//		SecretKey string `env:"STRIPE_SECRET_KEY"`
//	}
//
//	var cfg StripeConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
