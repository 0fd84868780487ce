package meetup

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"meetup_bot/internal/domain"
)

const (
	DefaultCacheTTL  = 30 * time.Minute
	defaultCacheSize = 256
)

// Fetcher is the query surface shared by Client and CachingClient.
type Fetcher interface {
	FetchFederated(ctx context.Context, token string) (domain.RawPayload, error)
	FetchBySource(ctx context.Context, token, sourceID string) (domain.RawPayload, error)
}

// CachingClient keeps successful payloads for a short TTL so repeated
// schedule checks do not hammer the API. Keys are the query and its
// variables; the token is not part of the key.
type CachingClient struct {
	next  Fetcher
	cache *expirable.LRU[string, domain.RawPayload]
}

func NewCachingClient(next Fetcher, ttl time.Duration) *CachingClient {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingClient{
		next:  next,
		cache: expirable.NewLRU[string, domain.RawPayload](defaultCacheSize, nil, ttl),
	}
}

func (c *CachingClient) FetchFederated(ctx context.Context, token string) (domain.RawPayload, error) {
	return c.get("self", func() (domain.RawPayload, error) {
		return c.next.FetchFederated(ctx, token)
	})
}

func (c *CachingClient) FetchBySource(ctx context.Context, token, sourceID string) (domain.RawPayload, error) {
	return c.get("groupByUrlname:"+sourceID, func() (domain.RawPayload, error) {
		return c.next.FetchBySource(ctx, token, sourceID)
	})
}

func (c *CachingClient) get(key string, fetch func() (domain.RawPayload, error)) (domain.RawPayload, error) {
	if payload, ok := c.cache.Get(key); ok {
		return payload, nil
	}
	payload, err := fetch()
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, payload)
	return payload, nil
}

// Purge drops every cached payload.
func (c *CachingClient) Purge() {
	c.cache.Purge()
}
