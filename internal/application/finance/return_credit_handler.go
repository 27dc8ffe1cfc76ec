package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/amas/backend/internal/domain/finance"
	"github.com/amas/backend/internal/domain/purchase"
	"github.com/amas/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReturnCreditHandler settles approved supplier returns against the
// supplier's debt. An approved return becomes a return-credit payment:
// each return line is first applied to the payable of the purchase
// order it came from, then whatever credit is left flows oldest-first
// over the supplier's remaining obligations.
type ReturnCreditHandler struct {
	payableRepo finance.PayableRepository
	paymentRepo finance.SupplierPaymentRepository
	returnRepo  purchase.ReturnRepository
	settlement  *finance.SettlementService
	txManager   shared.TransactionManager
	logger      *zap.Logger
}

// NewReturnCreditHandler creates a new handler for return approved events
func NewReturnCreditHandler(
	payableRepo finance.PayableRepository,
	paymentRepo finance.SupplierPaymentRepository,
	returnRepo purchase.ReturnRepository,
	settlement *finance.SettlementService,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *ReturnCreditHandler {
	return &ReturnCreditHandler{
		payableRepo: payableRepo,
		paymentRepo: paymentRepo,
		returnRepo:  returnRepo,
		settlement:  settlement,
		txManager:   txManager,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ReturnCreditHandler) EventTypes() []string {
	return []string{purchase.EventTypeReturnApproved}
}

// Handle creates and settles the return-credit payment for an approved
// return. Re-delivery is a no-op: at most one return-credit payment
// exists per return.
func (h *ReturnCreditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	approved, ok := event.(*purchase.ReturnApprovedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			purchase.EventTypeReturnApproved, event.EventType())
	}

	h.logger.Info("processing return approved event for credit settlement",
		zap.String("return_id", approved.ReturnID.String()),
		zap.String("return_number", approved.ReturnNumber),
		zap.String("supplier_id", approved.SupplierID.String()),
		zap.String("total_credit", approved.TotalCredit.String()),
	)

	exists, err := h.paymentRepo.ExistsReturnCredit(ctx, approved.ReturnID)
	if err != nil {
		return fmt.Errorf("failed to check existing return credit: %w", err)
	}
	if exists {
		h.logger.Warn("return credit already settled, skipping",
			zap.String("return_id", approved.ReturnID.String()),
			zap.String("return_number", approved.ReturnNumber),
		)
		return nil
	}

	if !approved.TotalCredit.IsPositive() {
		h.logger.Info("skipping settlement, return carries no credit",
			zap.String("return_id", approved.ReturnID.String()),
		)
		return nil
	}

	var plan *finance.AllocationPlan

	err = h.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		outstanding, err := h.payableRepo.FindOutstandingBySupplier(txCtx, approved.SupplierID, true)
		if err != nil {
			return fmt.Errorf("failed to load outstanding payables: %w", err)
		}
		candidates, byID := candidatesFrom(outstanding)

		links, err := h.resolveLinks(txCtx, approved)
		if err != nil {
			return err
		}

		plan, err = h.settlement.PlanCreditSettlement(approved.ReturnID, approved.TotalCredit, links, candidates)
		if err != nil {
			return err
		}

		paymentNumber, err := h.paymentRepo.GeneratePaymentNumber(txCtx)
		if err != nil {
			return fmt.Errorf("failed to generate payment number: %w", err)
		}

		payment, err := finance.NewSupplierPayment(
			paymentNumber,
			approved.SupplierID,
			approved.SupplierName,
			approved.TotalCredit,
			finance.PaymentMethodReturnCredit,
			approved.ReturnNumber,
			time.Now(),
		)
		if err != nil {
			return err
		}
		payment.Note = fmt.Sprintf("Credit from supplier return %s", approved.ReturnNumber)

		if err := h.settlement.ApplyPlan(payment, byID, plan); err != nil {
			return err
		}

		if err := h.paymentRepo.Save(txCtx, payment); err != nil {
			return fmt.Errorf("failed to save return credit payment: %w", err)
		}
		for _, alloc := range plan.Allocations {
			payable := byID[alloc.PayableID]
			if err := h.payableRepo.SaveWithLock(txCtx, payable); err != nil {
				return fmt.Errorf("failed to save payable %s: %w", payable.PayableNumber, err)
			}
		}

		return h.markReturnSettled(txCtx, approved)
	})
	if err != nil {
		return err
	}

	h.logger.Info("return credit settled",
		zap.String("return_id", approved.ReturnID.String()),
		zap.String("return_number", approved.ReturnNumber),
		zap.String("total_allocated", plan.TotalAllocated.String()),
		zap.String("unallocated", plan.Unallocated.String()),
		zap.Int("allocation_count", len(plan.Allocations)),
	)

	return nil
}

// resolveLinks maps each return line to the payable of its purchase
// order. Lines whose order has no open payable carry no strict link;
// their credit joins the FIFO pass.
func (h *ReturnCreditHandler) resolveLinks(ctx context.Context, approved *purchase.ReturnApprovedEvent) ([]finance.CreditLink, error) {
	links := make([]finance.CreditLink, 0, len(approved.Lines))
	for _, line := range approved.Lines {
		payable, err := h.payableRepo.FindBySource(ctx, finance.PayableSourceTypePurchaseOrder, line.PurchaseOrderID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve payable for order %s: %w", line.PurchaseOrderNumber, err)
		}
		if payable == nil {
			h.logger.Warn("no payable for returned order, credit falls through to oldest-first",
				zap.String("order_id", line.PurchaseOrderID.String()),
				zap.String("order_number", line.PurchaseOrderNumber),
			)
			continue
		}
		links = append(links, finance.CreditLink{
			PayableID: payable.ID,
			Amount:    line.Amount,
		})
	}
	return links, nil
}

func (h *ReturnCreditHandler) markReturnSettled(ctx context.Context, approved *purchase.ReturnApprovedEvent) error {
	ret, err := h.returnRepo.FindByID(ctx, approved.ReturnID)
	if err != nil {
		return fmt.Errorf("failed to get return: %w", err)
	}
	if ret == nil {
		return shared.NewDomainError("RETURN_NOT_FOUND", "Return not found")
	}
	if err := ret.MarkSettled(); err != nil {
		return err
	}
	if err := h.returnRepo.SaveWithLock(ctx, ret); err != nil {
		return fmt.Errorf("failed to save return: %w", err)
	}
	return nil
}

// Ensure ReturnCreditHandler implements shared.EventHandler
var _ shared.EventHandler = (*ReturnCreditHandler)(nil)
