package cost

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

func assertDecimal(t *testing.T, want string, got *decimal.Decimal) {
	t.Helper()
	require.NotNil(t, got)
	assert.Truef(t, decimal.RequireFromString(want).Equal(*got), "want %s, got %s", want, got.String())
}

func TestDeriveCostIndex(t *testing.T) {
	t.Run("all columns present", func(t *testing.T) {
		idx := DeriveCostIndex("c1", types.CostSource{
			MealRaw: "10", TicketRaw: "2", RentCentreRaw: "900", RentOutsideRaw: "600",
		})
		assert.Equal(t, "c1", idx.CityID)
		assertDecimal(t, "30.00", idx.FoodDaily)
		assertDecimal(t, "5.00", idx.LocalTransitDaily)
		assertDecimal(t, "30.00", idx.AccommodationMid)
		assertDecimal(t, "20.00", idx.AccommodationLow)
		assert.False(t, idx.Empty())
	})

	t.Run("rounds to cents", func(t *testing.T) {
		idx := DeriveCostIndex("c1", types.CostSource{
			MealRaw: "3.333", TicketRaw: "1.01", RentCentreRaw: "1000", RentOutsideRaw: " 455.5 ",
		})
		assertDecimal(t, "10.00", idx.FoodDaily)
		assertDecimal(t, "2.53", idx.LocalTransitDaily)
		assertDecimal(t, "33.33", idx.AccommodationMid)
		assertDecimal(t, "15.18", idx.AccommodationLow)
	})

	t.Run("malformed cells null only their metric", func(t *testing.T) {
		idx := DeriveCostIndex("c1", types.CostSource{
			MealRaw: "n/a", TicketRaw: "", RentCentreRaw: "900", RentOutsideRaw: "abc",
		})
		assert.Nil(t, idx.FoodDaily)
		assert.Nil(t, idx.LocalTransitDaily)
		assert.Nil(t, idx.AccommodationLow)
		assertDecimal(t, "30", idx.AccommodationMid)
	})

	t.Run("all missing is empty", func(t *testing.T) {
		idx := DeriveCostIndex("c1", types.CostSource{})
		assert.True(t, idx.Empty())
	})
}
