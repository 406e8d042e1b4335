package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dawsh2/torq/pkg/tlv"
)

// RetryDrainInterval is how often the background task sweeps the retry
// queue (spec §4.8: "every 30 seconds").
const RetryDrainInterval = 30 * time.Second

// Discoverer resolves a pool's token addresses and decimals, normally an
// *RPCClient but swappable in tests.
type Discoverer interface {
	DiscoverPool(ctx context.Context, pool common.Address) (PoolRecord, error)
}

// Service enriches PoolSwapTLV events with cached or freshly discovered
// token-decimal metadata (spec §4.8). Its drop-on-fail policy means a
// swap for an unresolvable pool is never emitted with default decimals:
// it's queued for retry and silently dropped from the current pass.
type Service struct {
	cache   *Cache
	disc    Discoverer
	limiter *rate.Limiter
	log     *zap.Logger

	mu    sync.Mutex
	retry map[common.Address][]tlv.PoolSwapTLV
}

// NewService returns a Service backed by cache and disc, pacing retry
// discovery calls to ratePerSecond (spec §4.8's "per-second rate limit").
func NewService(cache *Cache, disc Discoverer, ratePerSecond float64, log *zap.Logger) *Service {
	return &Service{
		cache:   cache,
		disc:    disc,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		log:     log,
		retry:   make(map[common.Address][]tlv.PoolSwapTLV),
	}
}

// Enrich fills swap's AmountInDecimals/AmountOutDecimals from the cache
// or, on a miss, from a fresh RPC discovery, then calls emit. On total
// discovery failure, swap is enqueued for retry and emit is never called
// — a dropped event, not an error.
func (s *Service) Enrich(ctx context.Context, swap tlv.PoolSwapTLV, emit func(tlv.PoolSwapTLV) error) error {
	rec, ok, err := s.cache.Get(swap.PoolAddress)
	if err != nil {
		return err
	}
	if ok {
		return emit(applyRecord(swap, rec))
	}

	rec, err = s.disc.DiscoverPool(ctx, swap.PoolAddress)
	if err != nil {
		s.log.Warn("enrichment: discovery failed, queuing for retry",
			zap.String("pool", swap.PoolAddress.Hex()), zap.Error(err))
		s.enqueue(swap)
		return nil
	}

	if err := s.cache.Put(swap.PoolAddress, rec); err != nil {
		return err
	}
	return emit(applyRecord(swap, rec))
}

func (s *Service) enqueue(swap tlv.PoolSwapTLV) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retry[swap.PoolAddress] = append(s.retry[swap.PoolAddress], swap)
}

// PendingCount reports how many swaps currently sit in the retry queue.
func (s *Service) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, swaps := range s.retry {
		n += len(swaps)
	}
	return n
}

// DrainRetryQueue makes one paced pass over every pool in the retry
// queue, re-attempting discovery and emitting every queued swap for a
// pool that resolves. Pools that still fail stay queued for the next
// sweep.
func (s *Service) DrainRetryQueue(ctx context.Context, emit func(tlv.PoolSwapTLV) error) error {
	s.mu.Lock()
	pools := make([]common.Address, 0, len(s.retry))
	for p := range s.retry {
		pools = append(pools, p)
	}
	s.mu.Unlock()

	for _, pool := range pools {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		rec, err := s.disc.DiscoverPool(ctx, pool)
		if err != nil {
			continue
		}
		if err := s.cache.Put(pool, rec); err != nil {
			return err
		}

		s.mu.Lock()
		swaps := s.retry[pool]
		delete(s.retry, pool)
		s.mu.Unlock()

		for _, swap := range swaps {
			if err := emit(applyRecord(swap, rec)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run drains the retry queue every RetryDrainInterval until ctx is
// cancelled.
func (s *Service) Run(ctx context.Context, emit func(tlv.PoolSwapTLV) error) error {
	ticker := time.NewTicker(RetryDrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.DrainRetryQueue(ctx, emit); err != nil {
				s.log.Warn("enrichment: retry drain failed", zap.Error(err))
			}
		}
	}
}

// applyRecord resolves which of rec's two tokens is swap.TokenIn versus
// swap.TokenOut and stamps the matching decimals onto swap.
func applyRecord(swap tlv.PoolSwapTLV, rec PoolRecord) tlv.PoolSwapTLV {
	if swap.TokenIn == rec.Token0 {
		swap.AmountInDecimals = rec.Token0Decimals
	} else {
		swap.AmountInDecimals = rec.Token1Decimals
	}
	if swap.TokenOut == rec.Token0 {
		swap.AmountOutDecimals = rec.Token0Decimals
	} else {
		swap.AmountOutDecimals = rec.Token1Decimals
	}
	return swap
}
