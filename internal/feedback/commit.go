package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kyotake/machivoice/internal/geo"
	"github.com/kyotake/machivoice/internal/metrics"
)

// Committer files a completed form: it resolves the place to coordinates
// and persists the record. It makes a single attempt per invocation.
type Committer struct {
	resolver geo.Resolver
	store    *Store
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// NewCommitter creates a commit pipeline.
func NewCommitter(resolver geo.Resolver, store *Store, logger zerolog.Logger, m *metrics.Metrics) *Committer {
	return &Committer{
		resolver: resolver,
		store:    store,
		log:      logger.With().Str("component", "commit").Logger(),
		metrics:  m,
	}
}

// Commit geocodes the form's place and persists the record under a fresh
// id. The returned error is informational: the engine deliberately keeps
// the enclosing turn successful, so every failure is also logged and
// counted here, where the reason is still known.
func (c *Committer) Commit(ctx context.Context, contact string, form Form) (*Opinion, error) {
	loc, err := c.resolver.Resolve(ctx, form.Place)
	if err != nil {
		if errors.Is(err, geo.ErrNotFound) {
			c.metrics.CommitsTotal.WithLabelValues(metrics.CommitGeocodeMiss).Inc()
			c.log.Warn().Str("place", form.Place).Msg("place could not be geocoded, record not filed")
			return nil, fmt.Errorf("resolving place %q: %w", form.Place, err)
		}
		c.metrics.CommitsTotal.WithLabelValues(metrics.CommitGeocodeError).Inc()
		c.log.Error().Err(err).Str("place", form.Place).Msg("geocoder failed, record not filed")
		return nil, fmt.Errorf("resolving place %q: %w", form.Place, err)
	}

	op := Opinion{
		ID:          uuid.New().String(),
		Contact:     contact,
		Description: form.Description,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
	}
	if err := c.store.PutOpinion(ctx, op); err != nil {
		c.metrics.CommitsTotal.WithLabelValues(metrics.CommitStoreError).Inc()
		c.log.Error().Err(err).Str("opinion_id", op.ID).Msg("storing opinion failed, record lost")
		return nil, fmt.Errorf("storing opinion: %w", err)
	}

	c.metrics.CommitsTotal.WithLabelValues(metrics.CommitFiled).Inc()
	c.log.Info().
		Str("opinion_id", op.ID).
		Float64("latitude", loc.Latitude).
		Float64("longitude", loc.Longitude).
		Msg("opinion filed")
	return &op, nil
}
