package verify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

// MockVerifyRepository is a mock implementation of Repository
type MockVerifyRepository struct {
	mock.Mock
}

func (m *MockVerifyRepository) Counts(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockVerifyRepository) Coverage(ctx context.Context) (types.Coverage, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.Coverage), args.Error(1)
}

func (m *MockVerifyRepository) SpotCheck(ctx context.Context, name string) (types.SpotCheck, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(types.SpotCheck), args.Error(1)
}

func connectorFor(repos map[string]Repository) Connector {
	return func(_ context.Context, url string) (Repository, func(), error) {
		repo, ok := repos[url]
		if !ok {
			return nil, nil, errors.New("dial tcp: connection refused")
		}
		return repo, func() {}, nil
	}
}

func TestServiceImpl_Verify(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()
	food := decimal.RequireFromString("21.00")

	t.Run("remote failure does not block local", func(t *testing.T) {
		local := new(MockVerifyRepository)
		local.On("Counts", mock.Anything).Return(100, 40, nil).Once()
		local.On("Coverage", mock.Anything).Return(types.Coverage{WithIATA: 30, WithCost: 40, Both: 20}, nil).Once()
		local.On("SpotCheck", mock.Anything, "Paris").
			Return(types.SpotCheck{Query: "Paris", Found: true, Name: "Paris", Country: "France", FoodDaily: &food}, nil).Once()
		local.On("SpotCheck", mock.Anything, "Yangon").
			Return(types.SpotCheck{Query: "Yangon"}, nil).Once()

		service := NewVerifyService(connectorFor(map[string]Repository{"local-url": local}), []string{"Paris", "Yangon"}, logger)
		reports := service.Verify(ctx, []Target{
			{Name: TargetLocal, URL: "local-url"},
			{Name: TargetRemote, URL: "remote-url"},
		})

		require.Len(t, reports, 2)
		assert.Equal(t, TargetLocal, reports[0].Target)
		assert.Empty(t, reports[0].Err)
		assert.Equal(t, 100, reports[0].Cities)
		assert.Equal(t, 20, reports[0].Coverage.Both)
		require.Len(t, reports[0].SpotChecks, 2)
		assert.True(t, reports[0].SpotChecks[0].HasCostData())
		assert.False(t, reports[0].SpotChecks[1].Found)

		assert.Equal(t, TargetRemote, reports[1].Target)
		assert.Contains(t, reports[1].Err, "connection refused")
		local.AssertExpectations(t)
	})

	t.Run("unconfigured target is skipped", func(t *testing.T) {
		service := NewVerifyService(connectorFor(nil), nil, logger)
		reports := service.Verify(ctx, []Target{{Name: TargetRemote}})

		require.Len(t, reports, 1)
		assert.True(t, reports[0].Skipped)
		assert.Empty(t, reports[0].Err)
	})

	t.Run("query failure is recorded", func(t *testing.T) {
		repo := new(MockVerifyRepository)
		repo.On("Counts", mock.Anything).Return(0, 0, errors.New("permission denied")).Once()

		service := NewVerifyService(connectorFor(map[string]Repository{"u": repo}), nil, logger)
		reports := service.Verify(ctx, []Target{{Name: TargetLocal, URL: "u"}})

		assert.Equal(t, "permission denied", reports[0].Err)
		repo.AssertNotCalled(t, "Coverage", mock.Anything)
	})

	t.Run("default spot checks", func(t *testing.T) {
		service := NewVerifyService(connectorFor(nil), nil, logger)
		assert.Equal(t, DefaultSpotChecks, service.spotChecks)
	})
}

func sampleReports() []types.VerificationReport {
	food := decimal.RequireFromString("18.5")
	return []types.VerificationReport{
		{
			Target: TargetLocal, Cities: 10, CostRows: 4,
			Coverage: types.Coverage{WithIATA: 3, WithCost: 4, Both: 2},
			SpotChecks: []types.SpotCheck{
				{Query: "Paris", Found: true, Name: "Paris", Country: "France", FoodDaily: &food},
				{Query: "Rangoon"},
			},
		},
		{Target: TargetRemote, Err: "connect: timeout"},
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReports()))

	xl, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = xl.Close() }()

	summary, err := xl.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	require.GreaterOrEqual(t, len(summary[1]), 7)
	assert.Equal(t, []string{"local", "ok", "10", "4", "3", "4", "2"}, summary[1][:7])
	assert.Equal(t, "failed", summary[2][1])

	spots, err := xl.GetRows(spotCheckSheet)
	require.NoError(t, err)
	require.Len(t, spots, 3)
	assert.Equal(t, "18.50", spots[1][5])
	assert.Equal(t, "Rangoon", spots[2][1])
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReports()))

	out := buf.String()
	assert.Contains(t, out, "== local (ok)")
	assert.Contains(t, out, "food 18.50/day")
	assert.Contains(t, out, "not found")
	assert.Contains(t, out, "== remote (failed)")
	assert.Contains(t, out, "connect: timeout")
}
