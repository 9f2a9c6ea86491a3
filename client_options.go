package repertoire

import (
	"time"

	"go.uber.org/zap"
)

const defaultDebounceWindow = 300 * time.Millisecond

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	indexEndpoint  string
	indexName      string
	indexSearchKey string

	syncEndpoint string
	syncToken    string

	defaultPageSize int
	maxPageSize     int
	debounceWindow  time.Duration

	logger *zap.Logger
}

// WithRedis sets the Redis addresses.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
	}
}

// WithAuth sets the Redis credentials.
func WithAuth(username, password string) Option {
	return func(c *clientConfig) {
		c.username = username
		c.password = password
	}
}

// WithDB selects the Redis logical database.
func WithDB(db int) Option {
	return func(c *clientConfig) {
		c.db = db
	}
}

// WithSearchIndex enables the hosted search index for filtered reads.
// Without it all reads come from the database.
func WithSearchIndex(endpoint, index, searchKey string) Option {
	return func(c *clientConfig) {
		c.indexEndpoint = endpoint
		c.indexName = index
		c.indexSearchKey = searchKey
	}
}

// WithSyncEndpoint enables fire-and-forget index reconciliation after writes.
func WithSyncEndpoint(endpoint, token string) Option {
	return func(c *clientConfig) {
		c.syncEndpoint = endpoint
		c.syncToken = token
	}
}

// WithPageSizes sets the default and maximum page sizes for listings.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(c *clientConfig) {
		c.defaultPageSize = defaultSize
		c.maxPageSize = maxSize
	}
}

// WithDebounceWindow sets the quiet period browse sessions wait after a
// filter change before searching.
func WithDebounceWindow(window time.Duration) Option {
	return func(c *clientConfig) {
		if window > 0 {
			c.debounceWindow = window
		}
	}
}

// WithLogger sets the logger used by the client and its background workers.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}
