package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DataSource provides raw trading history and account state for a wallet.
// since is milliseconds since epoch; 0 means all history.
type DataSource interface {
	Fills(ctx context.Context, wallet string, since int64) ([]map[string]any, error)
	Funding(ctx context.Context, wallet string, since int64) ([]map[string]any, error)
	UserState(ctx context.Context, wallet string) (map[string]any, error)
	AllMids(ctx context.Context) (map[string]any, error)
}

// IngestionService fetches raw account activity from the upstream data
// source. It is the only component that can fail with an error; everything
// downstream degrades gracefully instead.
type IngestionService struct {
	source DataSource
	logger *zap.Logger
}

// NewIngestionService creates a new IngestionService instance.
func NewIngestionService(source DataSource, logger *zap.Logger) *IngestionService {
	return &IngestionService{source: source, logger: logger}
}

// FetchAllFills fetches every fill for a wallet, pagination handled by the
// data source.
func (s *IngestionService) FetchAllFills(ctx context.Context, wallet string, since int64) ([]map[string]any, error) {
	fills, err := s.source.Fills(ctx, wallet, since)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fetched fills", zap.String("wallet", wallet), zap.Int("count", len(fills)))
	return fills, nil
}

// FetchAllFunding fetches every funding payment for a wallet.
func (s *IngestionService) FetchAllFunding(ctx context.Context, wallet string, since int64) ([]map[string]any, error) {
	funding, err := s.source.Funding(ctx, wallet, since)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fetched funding payments", zap.String("wallet", wallet), zap.Int("count", len(funding)))
	return funding, nil
}

// FetchActivity fetches fills and funding concurrently; the two histories are
// independent, but both must be complete before a timeline can be built.
func (s *IngestionService) FetchActivity(ctx context.Context, wallet string, since int64) (fills, funding []map[string]any, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fills, err = s.FetchAllFills(ctx, wallet, since)
		return err
	})
	g.Go(func() error {
		var err error
		funding, err = s.FetchAllFunding(ctx, wallet, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return fills, funding, nil
}

// FetchUserState fetches the current state snapshot (positions, balances).
func (s *IngestionService) FetchUserState(ctx context.Context, wallet string) (map[string]any, error) {
	return s.source.UserState(ctx, wallet)
}

// FetchAllMids fetches current mid prices for all assets.
func (s *IngestionService) FetchAllMids(ctx context.Context) (map[string]any, error) {
	return s.source.AllMids(ctx)
}
