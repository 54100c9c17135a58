package models

import (
	"fmt"

	"github.com/mmdatafocus/warehouse_backend/utils"
)

// StatusMachine validates detail-status transitions against a closed table.
// One machine instance exists per ticket family; the tables are the single
// source of truth for what callers may do to a detail.
type StatusMachine[S ~string] struct {
	Family      TicketFamily
	Initial     S
	Cancelled   S
	Transitions map[S][]S

	// Success marks the statuses counted as "reached terminal success" by the
	// parent-status cascade. Not every member is a dead end (e.g. production
	// COMPLETE still moves to READY) but all of them represent finished work.
	Success map[S]bool
}

func (m *StatusMachine[S]) CanTransition(from, to S) bool {
	for _, allowed := range m.Transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition exists from s.
func (m *StatusMachine[S]) IsTerminal(s S) bool {
	return len(m.Transitions[s]) == 0
}

// Validate returns ILLEGAL_TRANSITION unless from -> to is in the table.
// Terminal statuses (including self-loops) always fail here.
func (m *StatusMachine[S]) Validate(from, to S) error {
	if m.CanTransition(from, to) {
		return nil
	}
	return utils.NewCodedError(utils.ErrCodeIllegalTransition,
		fmt.Sprintf("cannot transition %s ticket detail from %s to %s", m.Family, from, to))
}

// DeriveParentStatus computes the ticket-level status from its detail
// statuses. Priority order:
//  1. all details cancelled            -> CANCELLED
//  2. all details terminal-success     -> COMPLETE
//  3. some cancelled, rest success     -> PARTIAL_CANCELLED
//  4. some success, none cancelled     -> PARTIAL_COMPLETE
//  5. all details still NEW            -> NEW
//  6. anything else (mixed in-flight)  -> IN_PROGRESS
func (m *StatusMachine[S]) DeriveParentStatus(detailStatuses []S) TicketStatus {
	if len(detailStatuses) == 0 {
		return TicketStatusNew
	}

	var cancelled, success, initial int
	for _, s := range detailStatuses {
		switch {
		case s == m.Cancelled:
			cancelled++
		case m.Success[s]:
			success++
		case s == m.Initial:
			initial++
		}
	}
	total := len(detailStatuses)

	switch {
	case cancelled == total:
		return TicketStatusCancelled
	case success == total:
		return TicketStatusComplete
	case cancelled > 0 && cancelled+success == total:
		return TicketStatusPartialCancelled
	case cancelled == 0 && success > 0:
		return TicketStatusPartialComplete
	case initial == total:
		return TicketStatusNew
	default:
		return TicketStatusInProgress
	}
}

var ProductionDetailMachine = &StatusMachine[ProductionDetailStatus]{
	Family:    TicketFamilyProduction,
	Initial:   ProductionDetailStatusNew,
	Cancelled: ProductionDetailStatusCancelled,
	Transitions: map[ProductionDetailStatus][]ProductionDetailStatus{
		ProductionDetailStatusNew:       {ProductionDetailStatusApproval, ProductionDetailStatusCancelled},
		ProductionDetailStatusApproval:  {ProductionDetailStatusComplete, ProductionDetailStatusCancelled},
		ProductionDetailStatusComplete:  {ProductionDetailStatusReady},
		ProductionDetailStatusReady:     {ProductionDetailStatusClosed},
		ProductionDetailStatusClosed:    {},
		ProductionDetailStatusCancelled: {},
	},
	Success: map[ProductionDetailStatus]bool{
		ProductionDetailStatusComplete: true,
		ProductionDetailStatusReady:    true,
		ProductionDetailStatusClosed:   true,
	},
}

var PurchasingDetailMachine = &StatusMachine[PurchasingDetailStatus]{
	Family:    TicketFamilyPurchasing,
	Initial:   PurchasingDetailStatusNew,
	Cancelled: PurchasingDetailStatusCancelled,
	Transitions: map[PurchasingDetailStatus][]PurchasingDetailStatus{
		PurchasingDetailStatusNew:        {PurchasingDetailStatusApproval, PurchasingDetailStatusCancelled},
		PurchasingDetailStatusApproval:   {PurchasingDetailStatusSuccessful, PurchasingDetailStatusCancelled},
		PurchasingDetailStatusSuccessful: {PurchasingDetailStatusShipping},
		PurchasingDetailStatusShipping:   {PurchasingDetailStatusReady},
		PurchasingDetailStatusReady:      {PurchasingDetailStatusClosed},
		PurchasingDetailStatusClosed:     {},
		PurchasingDetailStatusCancelled:  {},
	},
	Success: map[PurchasingDetailStatus]bool{
		PurchasingDetailStatusReady:  true,
		PurchasingDetailStatusClosed: true,
	},
}

var SaleOrderDetailMachine = &StatusMachine[SaleOrderDetailStatus]{
	Family:    TicketFamilySale,
	Initial:   SaleOrderDetailStatusNew,
	Cancelled: SaleOrderDetailStatusCancelled,
	Transitions: map[SaleOrderDetailStatus][]SaleOrderDetailStatus{
		SaleOrderDetailStatusNew:       {SaleOrderDetailStatusAllocated, SaleOrderDetailStatusCancelled},
		SaleOrderDetailStatusAllocated: {SaleOrderDetailStatusPacked, SaleOrderDetailStatusCancelled},
		SaleOrderDetailStatusPacked:    {SaleOrderDetailStatusShipped},
		SaleOrderDetailStatusShipped:   {SaleOrderDetailStatusDone},
		SaleOrderDetailStatusDone:      {},
		SaleOrderDetailStatusCancelled: {},
	},
	Success: map[SaleOrderDetailStatus]bool{
		SaleOrderDetailStatusDone: true,
	},
}
