package city

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

// MockCityRepository is a mock implementation of CityRepository
type MockCityRepository struct {
	mock.Mock
}

func (m *MockCityRepository) UpsertCities(ctx context.Context, batch []types.CityDetail) (int64, error) {
	args := m.Called(ctx, batch)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCityRepository) IATAAssignments(ctx context.Context, pageSize int) (map[string]string, error) {
	args := m.Called(ctx, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockCityRepository) ClearIATACodes(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCityRepository) SearchCities(ctx context.Context, query string, limit int) ([]types.CityDetail, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CityDetail), args.Error(1)
}

func setupCityServiceTest(opts Options) (*ServiceImpl, *MockCityRepository) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockRepo := new(MockCityRepository)
	return NewCityService(mockRepo, opts, logger), mockRepo
}

func TestServiceImpl_SeedCities_MovesCodeToNewOwner(t *testing.T) {
	service, mockRepo := setupCityServiceTest(Options{})
	ctx := context.Background()

	// A held LON before; B is London now.
	cities := []types.CitySource{
		{ID: "B", City: "London", CityASCII: "London", Country: "United Kingdom", ISO2: "GB"},
		{ID: "A", City: "Londinium", CityASCII: "Londinium", Country: "United Kingdom", ISO2: "GB"},
	}

	mockRepo.On("IATAAssignments", mock.Anything, 1000).Return(map[string]string{"LON": "A"}, nil).Once()
	mockRepo.On("ClearIATACodes", mock.Anything, []string{"A"}).Return(int64(1), nil).Once()
	mockRepo.On("UpsertCities", mock.Anything, mock.MatchedBy(func(batch []types.CityDetail) bool {
		return len(batch) == 2 &&
			batch[0].ID == "B" && batch[0].IATACode != nil && *batch[0].IATACode == "LON" &&
			batch[1].ID == "A" && batch[1].IATACode == nil
	})).Return(int64(2), nil).Once()

	summary, err := service.SeedCities(ctx, cities, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Prepared)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.Cleared)
	assert.Equal(t, 2, summary.Upsert.Written)
	assert.Empty(t, summary.Upsert.FailedBatches)
	mockRepo.AssertExpectations(t)
}

func TestServiceImpl_SeedCities_FailedBatchDoesNotAbort(t *testing.T) {
	service, mockRepo := setupCityServiceTest(Options{BatchSize: 2})
	ctx := context.Background()

	var cities []types.CitySource
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		cities = append(cities, types.CitySource{ID: id, City: "c" + id, CityASCII: "c" + id, Country: "X", ISO2: "XX"})
	}

	mockRepo.On("IATAAssignments", mock.Anything, 1000).Return(map[string]string{}, nil).Once()
	batchStarting := func(id string) any {
		return mock.MatchedBy(func(batch []types.CityDetail) bool { return batch[0].ID == id })
	}
	mockRepo.On("UpsertCities", mock.Anything, batchStarting("1")).Return(int64(2), nil).Once()
	mockRepo.On("UpsertCities", mock.Anything, batchStarting("3")).Return(int64(0), errors.New("deadlock")).Once()
	mockRepo.On("UpsertCities", mock.Anything, batchStarting("5")).Return(int64(1), nil).Once()

	summary, err := service.SeedCities(ctx, cities, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Upsert.Batches)
	assert.Equal(t, 3, summary.Upsert.Written)
	assert.Equal(t, []int{1}, summary.Upsert.FailedBatches)
	mockRepo.AssertNotCalled(t, "ClearIATACodes", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestServiceImpl_SeedCities_CancelledRunReturnsError(t *testing.T) {
	service, mockRepo := setupCityServiceTest(Options{BatchSize: 2})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cities []types.CitySource
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		cities = append(cities, types.CitySource{ID: id, CityASCII: "c" + id, ISO2: "XX"})
	}

	mockRepo.On("IATAAssignments", mock.Anything, 1000).Return(map[string]string{}, nil).Once()
	mockRepo.On("UpsertCities", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(int64(2), nil).Once()

	summary, err := service.SeedCities(ctx, cities, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, summary.Upsert.Written)
	assert.Equal(t, []int{1, 2}, summary.Upsert.FailedBatches)
	mockRepo.AssertExpectations(t)
}

func TestServiceImpl_SeedCities_ClearsInChunks(t *testing.T) {
	service, mockRepo := setupCityServiceTest(Options{ClearChunkSize: 2})
	ctx := context.Background()

	cities := []types.CitySource{
		{ID: "n1", CityASCII: "London", ISO2: "GB"},
		{ID: "n2", CityASCII: "Paris", ISO2: "FR"},
		{ID: "n3", CityASCII: "Rome", ISO2: "IT"},
	}
	existing := map[string]string{"LON": "o1", "PAR": "o2", "ROM": "o3"}

	mockRepo.On("IATAAssignments", mock.Anything, 1000).Return(existing, nil).Once()
	mockRepo.On("ClearIATACodes", mock.Anything, []string{"o1", "o2"}).Return(int64(0), errors.New("timeout")).Once()
	mockRepo.On("ClearIATACodes", mock.Anything, []string{"o3"}).Return(int64(1), nil).Once()
	mockRepo.On("UpsertCities", mock.Anything, mock.Anything).Return(int64(3), nil).Once()

	summary, err := service.SeedCities(ctx, cities, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Cleared)
	assert.Equal(t, 3, summary.Upsert.Written)
	mockRepo.AssertExpectations(t)
}

func TestServiceImpl_SeedCities_AssignmentFetchError(t *testing.T) {
	service, mockRepo := setupCityServiceTest(Options{})
	ctx := context.Background()

	mockRepo.On("IATAAssignments", mock.Anything, 1000).Return(nil, errors.New("connection refused")).Once()

	_, err := service.SeedCities(ctx, []types.CitySource{{ID: "1", CityASCII: "Paris", ISO2: "FR"}}, nil)
	require.Error(t, err)
	mockRepo.AssertNotCalled(t, "UpsertCities", mock.Anything, mock.Anything)
}

func TestServiceImpl_SeedCities_Empty(t *testing.T) {
	service, mockRepo := setupCityServiceTest(Options{})

	summary, err := service.SeedCities(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, summary.Prepared)
	mockRepo.AssertExpectations(t)
}

func TestServiceImpl_SearchCities(t *testing.T) {
	service, mockRepo := setupCityServiceTest(Options{})
	ctx := context.Background()

	t.Run("short query returns empty list", func(t *testing.T) {
		cities, err := service.SearchCities(ctx, "p")
		require.NoError(t, err)
		assert.NotNil(t, cities)
		assert.Empty(t, cities)
		mockRepo.AssertNotCalled(t, "SearchCities", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delegates with limit", func(t *testing.T) {
		expected := []types.CityDetail{{ID: "1", Name: "Paris", Country: "France"}}
		mockRepo.On("SearchCities", mock.Anything, "pa", 20).Return(expected, nil).Once()

		cities, err := service.SearchCities(ctx, "pa")
		require.NoError(t, err)
		assert.Equal(t, expected, cities)
		mockRepo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mockRepo.On("SearchCities", mock.Anything, "rome", 20).Return(nil, expectedErr).Once()

		_, err := service.SearchCities(ctx, "rome")
		assert.ErrorIs(t, err, expectedErr)
	})
}
