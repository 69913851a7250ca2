package oddscache

import (
	"context"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/epl-pipeline/internal/platform/cache"
	"github.com/riskibarqy/epl-pipeline/internal/platform/logging"
	"github.com/riskibarqy/epl-pipeline/internal/usecase"
)

const keyPrefix = "epl-pipeline:odds:"

// Source caches odds snapshots per calendar day in front of another
// OddsSource. A historical snapshot never changes, so repeated runs over the
// same dates cost no upstream quota.
type Source struct {
	next   usecase.OddsSource
	local  *cache.Store[[]usecase.ExternalOddsEvent]
	remote Remote
	ttl    time.Duration
	logger *logging.Logger
}

// NewSource wraps next. remote may be nil, in which case only the in-process
// cache is used.
func NewSource(next usecase.OddsSource, remote Remote, ttl time.Duration, logger *logging.Logger) *Source {
	if logger == nil {
		logger = logging.Default()
	}
	return &Source{
		next:   next,
		local:  cache.NewStore[[]usecase.ExternalOddsEvent](ttl),
		remote: remote,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *Source) FetchOddsForDate(ctx context.Context, date time.Time) ([]usecase.ExternalOddsEvent, error) {
	key := keyPrefix + date.UTC().Format(time.DateOnly)
	return s.local.GetOrLoad(ctx, key, func(ctx context.Context) ([]usecase.ExternalOddsEvent, error) {
		if events, ok := s.readRemote(ctx, key); ok {
			return events, nil
		}

		events, err := s.next.FetchOddsForDate(ctx, date)
		if err != nil {
			return nil, err
		}
		s.writeRemote(ctx, key, events)
		return events, nil
	})
}

func (s *Source) readRemote(ctx context.Context, key string) ([]usecase.ExternalOddsEvent, bool) {
	if s.remote == nil {
		return nil, false
	}

	raw, err := s.remote.Get(ctx, key)
	if err != nil {
		if !crerr.Is(err, ErrMiss) {
			s.logger.WarnContext(ctx, "odds cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var events []usecase.ExternalOddsEvent
	if err := sonic.Unmarshal(raw, &events); err != nil {
		s.logger.WarnContext(ctx, "odds cache entry is corrupt", "key", key, "error", err)
		return nil, false
	}
	return events, true
}

func (s *Source) writeRemote(ctx context.Context, key string, events []usecase.ExternalOddsEvent) {
	if s.remote == nil {
		return
	}

	raw, err := sonic.Marshal(events)
	if err != nil {
		s.logger.WarnContext(ctx, "encode odds cache entry failed", "key", key, "error", err)
		return
	}
	if err := s.remote.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "odds cache write failed", "key", key, "error", err)
	}
}
