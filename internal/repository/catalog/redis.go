package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/cartwise/internal/domain"
)

// RedisConfig holds connection parameters for the Redis catalog provider.
type RedisConfig struct {
	Addrs     []string
	Password  string
	KeyPrefix string
}

// RedisProvider loads products stored as one hash per product under
// <prefix>product:<id>. Tags are JSON-encoded in the "tags" field.
type RedisProvider struct {
	client rueidis.Client
	prefix string
}

// NewRedisProvider creates a Redis-backed catalog provider.
func NewRedisProvider(cfg RedisConfig) (*RedisProvider, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &RedisProvider{client: client, prefix: cfg.KeyPrefix}, nil
}

// Close shuts down the client.
func (r *RedisProvider) Close() {
	r.client.Close()
}

// Ping checks connectivity.
func (r *RedisProvider) Ping(ctx context.Context) error {
	cmd := r.client.B().Ping().Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the store responds or the timeout expires.
func (r *RedisProvider) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for catalog store: %w", ctx.Err())
		case <-ticker.C:
			if err := r.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Load scans product keys and fetches all hashes in one DoMulti
// round-trip per scan page. Results come back in key order so catalog
// iteration order is stable across loads.
func (r *RedisProvider) Load(ctx context.Context) ([]domain.Product, error) {
	keys, err := r.scanKeys(ctx, r.prefix+"product:*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = r.client.B().Hgetall().Key(key).Build()
	}

	results := r.client.DoMulti(ctx, cmds...)
	products := make([]domain.Product, 0, len(results))
	for i, res := range results {
		fields, err := res.AsStrMap()
		if err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", domain.ErrCatalogUnavailable, keys[i], err)
		}
		p, err := productFromHash(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", domain.ErrCatalogUnavailable, keys[i], err)
		}
		if p.Name == "" || p.Category == "" {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *RedisProvider) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		cmd := r.client.B().Scan().Cursor(cursor).Match(pattern).Count(200).Build()
		entry, err := r.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		keys = append(keys, entry.Elements...)
		cursor = entry.Cursor
		if cursor == 0 {
			return keys, nil
		}
	}
}

func productFromHash(fields map[string]string) (domain.Product, error) {
	p := domain.Product{
		ID:       fields["id"],
		Name:     fields["name"],
		Brand:    fields["brand"],
		Category: fields["category"],
		Features: fields["features"],
		Zone:     fields["zone"],
	}
	if raw := fields["price"]; raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Product{}, fmt.Errorf("invalid price %q: %w", raw, err)
		}
		p.Price = price
	}
	if raw := fields["tags"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Tags); err != nil {
			return domain.Product{}, fmt.Errorf("invalid tags %q: %w", raw, err)
		}
	}
	return p, nil
}
