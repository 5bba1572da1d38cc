package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const claimKeyFmt = "claim:webhook:%s:%s"

const (
	ReasonInvalidEventID = "invalid_event_id"
	ReasonDuplicateEvent = "duplicate_event"
)

type ClaimResult struct {
	Accepted bool
	Reason   string
}

// ClaimStore is the fast "seen this event before" gate in front of the
// settlement processor. Advisory only: the ledger remains correct without
// it, just slower. In strict mode a cache outage fails closed; non-strict
// deployments degrade to a TTL-bound in-process map, which is only safe on
// a single instance.
type ClaimStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	strict bool
	logger *slog.Logger

	mu  sync.Mutex
	mem map[string]time.Time
}

func NewClaimStore(rdb *redis.Client, ttl time.Duration, strict bool, logger *slog.Logger) *ClaimStore {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &ClaimStore{
		rdb:    rdb,
		ttl:    ttl,
		strict: strict,
		logger: logger,
		mem:    make(map[string]time.Time),
	}
}

// Claim records (provider, eventID) as seen, set-if-absent with TTL.
// Accepted=false with ReasonDuplicateEvent means some worker already claimed
// it. Empty event ids are rejected before any storage call.
func (c *ClaimStore) Claim(ctx context.Context, provider, eventID string) (ClaimResult, error) {
	if provider == "" || strings.TrimSpace(eventID) == "" {
		return ClaimResult{Accepted: false, Reason: ReasonInvalidEventID}, nil
	}

	key := fmt.Sprintf(claimKeyFmt, provider, eventID)

	ok, err := c.rdb.SetNX(ctx, key, "1", c.ttl).Result()
	if err != nil {
		if c.strict {
			return ClaimResult{}, fmt.Errorf("%w: %v", ErrClaimStoreUnavailable, err)
		}
		c.logger.WarnContext(ctx, "claim store degraded to process-local memory",
			"provider", provider, "event_id", eventID, "err", err)
		return c.claimLocal(key), nil
	}
	if !ok {
		return ClaimResult{Accepted: false, Reason: ReasonDuplicateEvent}, nil
	}
	return ClaimResult{Accepted: true}, nil
}

func (c *ClaimStore) claimLocal(key string) ClaimResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, exp := range c.mem {
		if now.After(exp) {
			delete(c.mem, k)
		}
	}

	if exp, seen := c.mem[key]; seen && now.Before(exp) {
		return ClaimResult{Accepted: false, Reason: ReasonDuplicateEvent}
	}
	c.mem[key] = now.Add(c.ttl)
	return ClaimResult{Accepted: true}
}
