// Package repertoire is the embedded SDK for the writer registry: CRUD and
// search over rights-holding writers, backed by Redis with an optional hosted
// search index in front of it.
package repertoire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/repertoire/internal/db"
	dbredis "github.com/kailas-cloud/repertoire/internal/db/redis"
	writerrepo "github.com/kailas-cloud/repertoire/internal/repository/writer"
	"github.com/kailas-cloud/repertoire/internal/transport/searchindex"
	"github.com/kailas-cloud/repertoire/internal/transport/syncjob"
	reconcileuc "github.com/kailas-cloud/repertoire/internal/usecase/reconcile"
	registryuc "github.com/kailas-cloud/repertoire/internal/usecase/registry"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the repertoire SDK entry point.
type Client struct {
	store          db.Store
	registrySvc    *registryuc.Service
	dispatcher     *reconcileuc.Dispatcher
	debounceWindow time.Duration
}

// New creates a repertoire Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		debounceWindow: defaultDebounceWindow,
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("repertoire: database address required (use WithRedis)")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := dbredis.NewStore(dbredis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("repertoire: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("repertoire: database not ready: %w", err)
	}

	repo := writerrepo.New(store)
	if err := repo.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("repertoire: ensure writer index: %w", err)
	}

	var index registryuc.IndexSearcher
	if cfg.indexEndpoint != "" {
		index = searchindex.NewClient(&searchindex.Config{
			Endpoint:  cfg.indexEndpoint,
			Index:     cfg.indexName,
			SearchKey: cfg.indexSearchKey,
			Logger:    logger,
		})
	}

	var (
		dispatcher *reconcileuc.Dispatcher
		sync       registryuc.Dispatcher
	)
	if cfg.syncEndpoint != "" {
		invoker := syncjob.NewClient(&syncjob.Config{
			Endpoint: cfg.syncEndpoint,
			Token:    cfg.syncToken,
		})
		dispatcher = reconcileuc.New(invoker, logger)
		sync = dispatcher
	}

	svc := registryuc.New(repo, index, sync, logger)
	if cfg.defaultPageSize > 0 || cfg.maxPageSize > 0 {
		svc = svc.WithPagination(cfg.defaultPageSize, cfg.maxPageSize)
	}

	return &Client{
		store:          store,
		registrySvc:    svc,
		dispatcher:     dispatcher,
		debounceWindow: cfg.debounceWindow,
	}, nil
}

// Close releases all resources, waiting briefly for in-flight index
// reconciles.
func (c *Client) Close() {
	if c.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = c.dispatcher.Flush(ctx)
		cancel()
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Writers returns the writer registry service.
func (c *Client) Writers() *WriterService {
	return &WriterService{svc: c.registrySvc}
}

// Browse opens an interactive browse session over the registry. The handler
// receives each page of results as they arrive.
func (c *Client) Browse(handler BrowseHandler) *Browser {
	return newBrowser(c.Writers(), c.debounceWindow, handler)
}
