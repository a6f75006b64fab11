package services

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSource is a scripted DataSource for tests.
type fakeSource struct {
	fills      []map[string]any
	funding    []map[string]any
	state      map[string]any
	mids       map[string]any
	fillsErr   error
	fundingErr error
	stateErr   error
}

func (f *fakeSource) Fills(ctx context.Context, wallet string, since int64) ([]map[string]any, error) {
	return f.fills, f.fillsErr
}

func (f *fakeSource) Funding(ctx context.Context, wallet string, since int64) ([]map[string]any, error) {
	return f.funding, f.fundingErr
}

func (f *fakeSource) UserState(ctx context.Context, wallet string) (map[string]any, error) {
	return f.state, f.stateErr
}

func (f *fakeSource) AllMids(ctx context.Context) (map[string]any, error) {
	return f.mids, nil
}

func TestFetchActivity(t *testing.T) {
	source := &fakeSource{
		fills:   []map[string]any{{"time": int64(1000)}},
		funding: []map[string]any{{"time": int64(1500)}, {"time": int64(2000)}},
	}
	svc := NewIngestionService(source, zap.NewNop())

	fills, funding, err := svc.FetchActivity(context.Background(), testWallet, 0)

	require.NoError(t, err)
	assert.Len(t, fills, 1)
	assert.Len(t, funding, 2)
}

func TestFetchActivity_PropagatesErrors(t *testing.T) {
	boom := errors.New("upstream down")

	tests := []struct {
		name   string
		source *fakeSource
	}{
		{"fills fail", &fakeSource{fillsErr: boom}},
		{"funding fails", &fakeSource{fundingErr: boom}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewIngestionService(tc.source, zap.NewNop())
			_, _, err := svc.FetchActivity(context.Background(), testWallet, 0)
			assert.ErrorIs(t, err, boom)
		})
	}
}
