package models_test

import (
	"testing"

	"github.com/mmdatafocus/warehouse_backend/models"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"github.com/stretchr/testify/require"
)

// allStatuses spans every value of a family so the tests can walk the full
// from/to grid, not just the listed edges.
var (
	allProductionStatuses = []models.ProductionDetailStatus{
		models.ProductionDetailStatusNew,
		models.ProductionDetailStatusApproval,
		models.ProductionDetailStatusComplete,
		models.ProductionDetailStatusReady,
		models.ProductionDetailStatusClosed,
		models.ProductionDetailStatusCancelled,
	}
	allPurchasingStatuses = []models.PurchasingDetailStatus{
		models.PurchasingDetailStatusNew,
		models.PurchasingDetailStatusApproval,
		models.PurchasingDetailStatusSuccessful,
		models.PurchasingDetailStatusShipping,
		models.PurchasingDetailStatusReady,
		models.PurchasingDetailStatusClosed,
		models.PurchasingDetailStatusCancelled,
	}
	allSaleStatuses = []models.SaleOrderDetailStatus{
		models.SaleOrderDetailStatusNew,
		models.SaleOrderDetailStatusAllocated,
		models.SaleOrderDetailStatusPacked,
		models.SaleOrderDetailStatusShipped,
		models.SaleOrderDetailStatusDone,
		models.SaleOrderDetailStatusCancelled,
	}
)

// The table is enforced both ways: every listed edge validates, everything
// else (terminal self-loops included) fails with ILLEGAL_TRANSITION.
func machineGridCheck[S ~string](t *testing.T, m *models.StatusMachine[S], all []S) {
	t.Helper()
	for _, from := range all {
		allowed := map[S]bool{}
		for _, to := range m.Transitions[from] {
			allowed[to] = true
		}
		for _, to := range all {
			err := m.Validate(from, to)
			if allowed[to] {
				require.NoErrorf(t, err, "%s -> %s should be legal", from, to)
			} else {
				require.Errorf(t, err, "%s -> %s should be illegal", from, to)
				require.Equal(t, utils.ErrCodeIllegalTransition, utils.CodeOf(err))
			}
		}
	}
}

func TestProductionMachine_TransitionGrid(t *testing.T) {
	machineGridCheck(t, models.ProductionDetailMachine, allProductionStatuses)
}

func TestPurchasingMachine_TransitionGrid(t *testing.T) {
	machineGridCheck(t, models.PurchasingDetailMachine, allPurchasingStatuses)
}

func TestSaleOrderMachine_TransitionGrid(t *testing.T) {
	machineGridCheck(t, models.SaleOrderDetailMachine, allSaleStatuses)
}

func TestProductionMachine_HappyPath(t *testing.T) {
	m := models.ProductionDetailMachine
	path := []models.ProductionDetailStatus{
		models.ProductionDetailStatusNew,
		models.ProductionDetailStatusApproval,
		models.ProductionDetailStatusComplete,
		models.ProductionDetailStatusReady,
		models.ProductionDetailStatusClosed,
	}
	for i := 0; i < len(path)-1; i++ {
		require.NoError(t, m.Validate(path[i], path[i+1]))
	}
	require.True(t, m.IsTerminal(models.ProductionDetailStatusClosed))
	require.True(t, m.IsTerminal(models.ProductionDetailStatusCancelled))
	require.False(t, m.IsTerminal(models.ProductionDetailStatusComplete))
}

func TestSaleOrderMachine_NoCancelAfterPacked(t *testing.T) {
	m := models.SaleOrderDetailMachine
	require.Error(t, m.Validate(models.SaleOrderDetailStatusPacked, models.SaleOrderDetailStatusCancelled))
	require.Error(t, m.Validate(models.SaleOrderDetailStatusShipped, models.SaleOrderDetailStatusCancelled))
}

func TestDeriveParentStatus_Cascade(t *testing.T) {
	m := models.ProductionDetailMachine

	cases := []struct {
		name    string
		details []models.ProductionDetailStatus
		want    models.TicketStatus
	}{
		{
			"all cancelled",
			[]models.ProductionDetailStatus{models.ProductionDetailStatusCancelled, models.ProductionDetailStatusCancelled},
			models.TicketStatusCancelled,
		},
		{
			"all complete",
			[]models.ProductionDetailStatus{models.ProductionDetailStatusComplete, models.ProductionDetailStatusComplete},
			models.TicketStatusComplete,
		},
		{
			"complete and cancelled",
			[]models.ProductionDetailStatus{models.ProductionDetailStatusComplete, models.ProductionDetailStatusCancelled},
			models.TicketStatusPartialCancelled,
		},
		{
			"new and complete",
			[]models.ProductionDetailStatus{models.ProductionDetailStatusNew, models.ProductionDetailStatusComplete},
			models.TicketStatusPartialComplete,
		},
		{
			"all new",
			[]models.ProductionDetailStatus{models.ProductionDetailStatusNew, models.ProductionDetailStatusNew, models.ProductionDetailStatusNew},
			models.TicketStatusNew,
		},
		{
			"in flight",
			[]models.ProductionDetailStatus{models.ProductionDetailStatusNew, models.ProductionDetailStatusApproval},
			models.TicketStatusInProgress,
		},
		{
			"cancelled with work remaining",
			[]models.ProductionDetailStatus{models.ProductionDetailStatusCancelled, models.ProductionDetailStatusApproval},
			models.TicketStatusInProgress,
		},
		{
			"closed counts as success",
			[]models.ProductionDetailStatus{models.ProductionDetailStatusClosed, models.ProductionDetailStatusReady},
			models.TicketStatusComplete,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, m.DeriveParentStatus(tc.details))
		})
	}
}

func TestDeriveParentStatus_SaleFamilyTerminal(t *testing.T) {
	m := models.SaleOrderDetailMachine
	// Only DONE counts as success in the sale family. One DONE with no
	// cancellations is partial completion even while the rest is in flight.
	got := m.DeriveParentStatus([]models.SaleOrderDetailStatus{
		models.SaleOrderDetailStatusShipped,
		models.SaleOrderDetailStatusDone,
	})
	require.Equal(t, models.TicketStatusPartialComplete, got)

	got = m.DeriveParentStatus([]models.SaleOrderDetailStatus{
		models.SaleOrderDetailStatusDone,
		models.SaleOrderDetailStatusDone,
	})
	require.Equal(t, models.TicketStatusComplete, got)
}
