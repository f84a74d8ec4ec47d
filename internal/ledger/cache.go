package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/aidledger/internal/common"
	"github.com/Veraticus/aidledger/internal/model"
	"github.com/Veraticus/aidledger/internal/service"
	"github.com/Veraticus/aidledger/internal/txerror"
	"github.com/gagliardetto/solana-go"
)

// CachingClient serves account reads from a local cache for up to ttl and
// drops every writable account of a send that landed from it.
type CachingClient struct {
	next  Client
	cache service.AccountCache
	now   func() time.Time
	ttl   time.Duration
}

// NewCachingClient wraps next. A ttl of zero disables read caching while
// still invalidating on send.
func NewCachingClient(next Client, cache service.AccountCache, ttl time.Duration) *CachingClient {
	return &CachingClient{
		next:  next,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Wallet implements Client.Wallet.
func (c *CachingClient) Wallet() solana.PublicKey {
	return c.next.Wallet()
}

// FetchAccount implements Client.FetchAccount.
func (c *CachingClient) FetchAccount(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	key := address.String()

	if c.ttl > 0 {
		cached, err := c.cache.GetAccount(ctx, key)
		switch {
		case err == nil && c.now().Sub(cached.FetchedAt) < c.ttl:
			slog.Debug("Account cache hit", "address", key)
			return cached.Data, nil
		case err != nil && !errors.Is(err, common.ErrNotFound):
			slog.Warn("Account cache read failed", "address", key, "error", err)
		}
	}

	data, err := c.next.FetchAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if data == nil {
		// Missing accounts are not cached; they may be created at any time.
		if err := c.cache.DeleteAccount(ctx, key); err != nil {
			slog.Warn("Account cache delete failed", "address", key, "error", err)
		}
		return nil, nil
	}

	if c.ttl > 0 {
		if err := c.cache.PutAccount(ctx, &model.CachedAccount{
			Address:   key,
			Data:      data,
			FetchedAt: c.now(),
		}); err != nil {
			slog.Warn("Account cache write failed", "address", key, "error", err)
		}
	}
	return data, nil
}

// SendInstruction implements Client.SendInstruction.
func (c *CachingClient) SendInstruction(ctx context.Context, programID solana.PublicKey, accounts []*solana.AccountMeta, data []byte) (solana.Signature, error) {
	sig, err := c.next.SendInstruction(ctx, programID, accounts, data)
	// A duplicate rejection means an earlier send already landed.
	if err != nil && !txerror.IsDuplicate(err.Error()) {
		return sig, err
	}
	for _, meta := range accounts {
		if meta == nil || !meta.IsWritable {
			continue
		}
		if err := c.Invalidate(ctx, meta.PublicKey); err != nil {
			slog.Warn("Account cache invalidation failed", "address", meta.PublicKey.String(), "error", err)
		}
	}
	return sig, err
}

// ListProgramAccounts passes through to the wrapped client when it supports
// program scans. Results are not cached.
func (c *CachingClient) ListProgramAccounts(ctx context.Context, programID solana.PublicKey, filters ...Memcmp) ([]Account, error) {
	lister, ok := c.next.(ProgramAccountLister)
	if !ok {
		return nil, fmt.Errorf("ledger client %T cannot list program accounts", c.next)
	}
	return lister.ListProgramAccounts(ctx, programID, filters...)
}

// Invalidate drops address from the cache so the next read refetches it.
func (c *CachingClient) Invalidate(ctx context.Context, address solana.PublicKey) error {
	return c.cache.DeleteAccount(ctx, address.String())
}

var (
	_ Client               = (*CachingClient)(nil)
	_ ProgramAccountLister = (*CachingClient)(nil)
)
