package models_test

import (
	"testing"

	"github.com/mmdatafocus/warehouse_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestClassifyStock_PriorityOrder(t *testing.T) {
	min := d("10")
	max := d("100")

	cases := []struct {
		name    string
		current string
		want    models.InventoryStatus
	}{
		{"negative is out of stock", "-5", models.InventoryStatusOutOfStock},
		{"zero is out of stock", "0", models.InventoryStatusOutOfStock},
		{"at minimum is low", "10", models.InventoryStatusLowStock},
		{"below minimum but positive is low", "5", models.InventoryStatusLowStock},
		{"between thresholds is in stock", "50", models.InventoryStatusInStock},
		{"just under max is in stock", "99.9999", models.InventoryStatusInStock},
		{"at maximum is over", "100", models.InventoryStatusOverStock},
		{"above maximum is over", "250", models.InventoryStatusOverStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, models.ClassifyStock(d(tc.current), min, max))
		})
	}
}

// Out-of-stock wins even when the thresholds would also match.
func TestClassifyStock_OutOfStockBeatsLow(t *testing.T) {
	got := models.ClassifyStock(d("0"), d("10"), d("100"))
	require.Equal(t, models.InventoryStatusOutOfStock, got)
}

// A record without a configured maximum never reports OVER_STOCK.
func TestClassifyStock_NoMaximumConfigured(t *testing.T) {
	got := models.ClassifyStock(d("1000000"), d("10"), decimal.Zero)
	require.Equal(t, models.InventoryStatusInStock, got)
}

// Every input maps to exactly one of the four statuses.
func TestClassifyStock_Total(t *testing.T) {
	known := map[models.InventoryStatus]bool{
		models.InventoryStatusOutOfStock: true,
		models.InventoryStatusLowStock:   true,
		models.InventoryStatusInStock:    true,
		models.InventoryStatusOverStock:  true,
	}
	for _, current := range []string{"-100", "-0.0001", "0", "0.0001", "9.9999", "10", "10.0001", "55", "100", "100.0001", "99999"} {
		got := models.ClassifyStock(d(current), d("10"), d("100"))
		require.Truef(t, known[got], "current=%s returned unknown status %s", current, got)
	}
}
