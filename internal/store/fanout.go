package store

import (
	"context"

	"madlib-engine/internal/common/logger"
	"madlib-engine/internal/madlib"
)

// FanoutSink saves through the primary sink, then archives and caches the
// madlib best-effort. Only the primary determines the returned id and
// error; archive and cache failures are logged and swallowed.
type FanoutSink struct {
	Primary madlib.SaveSink
	Archive *MadlibArchive
	Cache   *RecentCache
	Logger  logger.Logger
}

func (s *FanoutSink) Save(ctx context.Context, m *madlib.CompletedMadlib) (string, error) {
	id, err := s.Primary.Save(ctx, m)
	if err != nil {
		return "", err
	}

	if s.Archive != nil {
		if err := s.Archive.Insert(ctx, id, m); err != nil {
			s.Logger.WithError(err).Warn("madlib archive insert failed", map[string]interface{}{
				"id": id,
			})
		}
	}
	if s.Cache != nil {
		if err := s.Cache.Put(ctx, id, m); err != nil {
			s.Logger.WithError(err).Warn("madlib cache put failed", map[string]interface{}{
				"id": id,
			})
		}
	}

	return id, nil
}
