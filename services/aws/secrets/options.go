package secrets

import (
	"log/slog"
	"time"
)

type clientOptions struct {
	logger   *slog.Logger
	cache    *InMemoryCache
	retryer  *CustomRetryer
	region   string
	endpoint string
}

// Option configures a Client.
type Option func(*clientOptions)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithCache enables caching of secret values for ttl.
func WithCache(ttl time.Duration, maxSize int) Option {
	return func(o *clientOptions) { o.cache = NewInMemoryCache(ttl, maxSize) }
}

// WithRetryer replaces the default retryer.
func WithRetryer(r *CustomRetryer) Option {
	return func(o *clientOptions) { o.retryer = r }
}

// WithRegion overrides the region of the default AWS configuration.
func WithRegion(region string) Option {
	return func(o *clientOptions) { o.region = region }
}

// WithEndpoint points the client at a custom endpoint, e.g. LocalStack.
func WithEndpoint(url string) Option {
	return func(o *clientOptions) { o.endpoint = url }
}

func applyOptions(opts []Option) *clientOptions {
	o := &clientOptions{retryer: defaultRetryer()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}
