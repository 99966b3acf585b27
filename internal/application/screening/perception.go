package screening

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// perceptionCache keeps ring and aromaticity tables per target so a library
// screened with several patterns is perceived once. Entries are costed by
// an estimate of their size in bytes.
type perceptionCache struct {
	tables  *ristretto.Cache[uint64, *substructure.Tables]
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

func newPerceptionCache(maxCost int64, log logging.Logger, m *prometheus.AppMetrics) (*perceptionCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[uint64, *substructure.Tables]{
		NumCounters: maxCost / 64,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create perception cache")
	}
	return &perceptionCache{tables: c, logger: log, metrics: m}, nil
}

func tablesKey(fp uint64, ringMax int, strict bool) uint64 {
	var buf [17]byte
	binary.LittleEndian.PutUint64(buf[:8], fp)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(ringMax))
	if strict {
		buf[16] = 1
	}
	return xxhash.Sum64(buf[:])
}

func tablesCost(n int, t *substructure.Tables) int64 {
	cost := int64(256 + 32*n)
	if t.Rings != nil {
		for _, rings := range t.Rings.Rings {
			cost += int64(len(rings) * (32 + n/8))
		}
	}
	return cost
}

// get returns the tables of g probed up to ringMax, computing and storing
// them on a miss.
func (c *perceptionCache) get(ctx context.Context, g molecule.Graph, ringMax int, strict bool) (*substructure.Tables, error) {
	key := tablesKey(molecule.Fingerprint(g), ringMax, strict)
	if t, ok := c.tables.Get(key); ok {
		prometheus.RecordCacheAccess(c.metrics, "perception", true)
		return t, nil
	}
	prometheus.RecordCacheAccess(c.metrics, "perception", false)

	start := time.Now()
	t, err := substructure.Perceive(ctx, g, ringMax, strict)
	c.metrics.PerceptionDuration.WithLabelValues("tables").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if len(t.Rings.Skipped) > 0 {
		c.logger.Warn("Ring probes skipped", logging.Ints("sizes", t.Rings.Skipped), logging.Int("atoms", g.AtomCount()))
	}
	c.tables.Set(key, t, tablesCost(g.AtomCount(), t))
	return t, nil
}

// forSearch returns shared tables for a search of p, or nil when the search
// needs no perception or probes below the aromaticity floor and must
// perceive with its own limits.
func (c *perceptionCache) forSearch(ctx context.Context, g molecule.Graph, p *pattern.Pattern, opts substructure.Options) (*substructure.Tables, error) {
	if !p.NeedsRingData() && !p.NeedsAromatic() {
		return nil, nil
	}
	limit := opts.RingDataMax
	if limit == 0 {
		limit = substructure.DefaultRingDataMax
	}
	if opts.AromaticStrict && limit < substructure.StrictRingDataMin {
		limit = substructure.StrictRingDataMin
	}
	if m := p.MaxRingSize(); m > limit {
		limit = m
	}
	if limit < substructure.StrictRingDataMin || limit > substructure.MaxRingDataMax {
		return nil, nil
	}
	return c.get(ctx, g, limit, opts.AromaticStrict)
}

func (c *perceptionCache) close() {
	c.tables.Close()
}

//Personal.AI order the ending
