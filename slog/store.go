package slog

import (
	"context"
	"log/slog"
	"time"

	jptransit "github.com/anhlt/jp-transit-search"
)

// Ensure LoggingStationStore implements jptransit.StationStore.
var _ jptransit.StationStore = (*LoggingStationStore)(nil)

// LoggingStationStore wraps a StationStore with structured logging of
// every write and load.
type LoggingStationStore struct {
	next   jptransit.StationStore
	logger *slog.Logger
}

// NewLoggingStationStore creates a new LoggingStationStore.
func NewLoggingStationStore(next jptransit.StationStore, logger *slog.Logger) *LoggingStationStore {
	return &LoggingStationStore{next: next, logger: logger}
}

// Append delegates to the wrapped store and logs the batch size.
func (s *LoggingStationStore) Append(ctx context.Context, stations []*jptransit.Station) error {
	begin := time.Now()
	err := s.next.Append(ctx, stations)
	if err != nil {
		s.logger.Error("station append",
			slog.Int("count", len(stations)),
			slog.Any("err", err),
		)
		return err
	}
	s.logger.Debug("station append",
		slog.Int("count", len(stations)),
		slog.Duration("duration", time.Since(begin)),
	)
	return nil
}

// LoadAll delegates to the wrapped store and logs the record count.
func (s *LoggingStationStore) LoadAll(ctx context.Context) ([]*jptransit.Station, error) {
	begin := time.Now()
	stations, err := s.next.LoadAll(ctx)
	if err != nil {
		s.logger.Error("station load", slog.Any("err", err))
		return nil, err
	}
	s.logger.Debug("station load",
		slog.Int("count", len(stations)),
		slog.Duration("duration", time.Since(begin)),
	)
	return stations, nil
}

// Truncate delegates to the wrapped store.
func (s *LoggingStationStore) Truncate(ctx context.Context) error {
	if err := s.next.Truncate(ctx); err != nil {
		s.logger.Error("station truncate", slog.Any("err", err))
		return err
	}
	s.logger.Debug("station truncate")
	return nil
}
