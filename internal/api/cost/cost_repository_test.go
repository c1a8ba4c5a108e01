package cost

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

func setupCostRepositoryTest(t *testing.T) (*PostgresCostRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewCostRepository(mock, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func TestPostgresCostRepository_ListCityKeys(t *testing.T) {
	ctx := context.Background()
	repo, mock := setupCostRepositoryTest(t)

	mock.ExpectQuery(`SELECT id, name, country FROM cities ORDER BY id LIMIT \$1 OFFSET \$2`).
		WithArgs(2, 0).
		WillReturnRows(mock.NewRows([]string{"id", "name", "country"}).
			AddRow("1", "Paris", "France").
			AddRow("2", "Lyon", "France"))
	mock.ExpectQuery(`SELECT id, name, country FROM cities`).
		WithArgs(2, 2).
		WillReturnRows(mock.NewRows([]string{"id", "name", "country"}).
			AddRow("3", "Porto", "Portugal"))

	keys, err := repo.ListCityKeys(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []types.CityKey{
		{ID: "1", Name: "Paris", Country: "France"},
		{ID: "2", Name: "Lyon", Country: "France"},
		{ID: "3", Name: "Porto", Country: "Portugal"},
	}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCostRepository_UpsertCostIndices(t *testing.T) {
	ctx := context.Background()
	food := decimal.RequireFromString("30.00")

	t.Run("on conflict update by city", func(t *testing.T) {
		repo, mock := setupCostRepositoryTest(t)
		batch := []types.CostIndex{
			{CityID: "1", FoodDaily: &food},
			{CityID: "2", FoodDaily: &food},
		}
		mock.ExpectExec(`INSERT INTO cost_indices .* VALUES \(\$1, \$2, \$3, \$4, \$5\), \(\$6, \$7, \$8, \$9, \$10\) ON CONFLICT \(city_id\) DO UPDATE SET`).
			WithArgs(
				"1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				"2", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 2))

		n, err := repo.UpsertCostIndices(ctx, batch)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error is wrapped", func(t *testing.T) {
		repo, mock := setupCostRepositoryTest(t)
		dbErr := errors.New("fk violation")
		mock.ExpectExec(`INSERT INTO cost_indices`).
			WithArgs("x", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(dbErr)

		_, err := repo.UpsertCostIndices(ctx, []types.CostIndex{{CityID: "x", FoodDaily: &food}})
		assert.ErrorIs(t, err, dbErr)
	})
}
