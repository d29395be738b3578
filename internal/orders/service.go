package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andicblue/ventas/internal/catalog"
	"github.com/andicblue/ventas/internal/cashflow"
	"github.com/andicblue/ventas/internal/customers"
	"github.com/andicblue/ventas/internal/inventory"
	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/andicblue/ventas/internal/shared"
)

// Notifier is told when an order has been booked. Used to kick off
// background work; failures there must not affect the booked order.
type Notifier interface {
	OrderConfirmed(ctx context.Context, orderID string)
}

// Service coordinates the order-to-ledger reconciliation.
type Service struct {
	repo      *Repository
	catalog   *catalog.Service
	directory *customers.Service
	stock     *inventory.Ledger
	cash      *cashflow.Ledger
	policy    Policy
	idem      *shared.IdempotencyStore
	notifier  Notifier
}

// NewService builds the order processor. idem and notifier may be nil.
func NewService(
	repo *Repository,
	cat *catalog.Service,
	directory *customers.Service,
	stock *inventory.Ledger,
	cash *cashflow.Ledger,
	policy Policy,
	idem *shared.IdempotencyStore,
	notifier Notifier,
) *Service {
	if policy.ConflictRetries <= 0 {
		policy.ConflictRetries = 3
	}
	return &Service{
		repo:      repo,
		catalog:   cat,
		directory: directory,
		stock:     stock,
		cash:      cash,
		policy:    policy,
		idem:      idem,
		notifier:  notifier,
	}
}

// Submit runs the full order pipeline: resolve the customer, verify every
// line, price the order, reconcile the payment, then commit inventory,
// order and cash entries together. Any failure leaves no partial state
// behind. idemKey deduplicates re-submissions and may be empty.
func (s *Service) Submit(ctx context.Context, req SubmitOrderRequest, idemKey string) (Order, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Order{}, err
	}

	customer, err := s.directory.FindOrCreate(ctx, req.CustomerName, req.CustomerPhone, req.CustomerAddress)
	if err != nil {
		return Order{}, err
	}

	lines, productTotal, err := s.priceLines(ctx, req.Lines)
	if err != nil {
		return Order{}, err
	}

	deliveryFee := s.policy.DeliveryFee
	if req.FreeDelivery || (s.policy.FreeDeliveryThreshold > 0 && productTotal >= s.policy.FreeDeliveryThreshold) {
		deliveryFee = 0
	}
	grandTotal := productTotal + deliveryFee

	outstanding, err := reconcilePayment(req.PaymentMethod, grandTotal, req.AmountPaid)
	if err != nil {
		return Order{}, err
	}

	if idemKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, idemKey, "orders"); err != nil {
			return Order{}, err
		}
	}
	fail := func(err error) (Order, error) {
		if idemKey != "" && s.idem != nil {
			_ = s.idem.Release(ctx, idemKey, "orders")
		}
		return Order{}, err
	}

	requests := make([]inventory.Request, len(lines))
	for i, line := range lines {
		requests[i] = inventory.Request{ProductID: line.ProductID, Quantity: line.Quantity}
	}

	// Check then commit. The decrement re-verifies under per-product
	// locks, so a lost race shows up as a version conflict and the whole
	// order is retried from the availability check.
	committed := false
	for attempt := 0; attempt < s.policy.ConflictRetries; attempt++ {
		short, err := s.stock.CheckAll(ctx, requests)
		if err != nil {
			return fail(err)
		}
		if len(short) > 0 {
			return fail(&inventory.InsufficientStockError{Lines: short})
		}
		err = s.stock.DecrementAll(ctx, requests)
		if err == nil {
			committed = true
			break
		}
		if errors.Is(err, rowstore.ErrVersionConflict) {
			continue
		}
		return fail(err)
	}
	if !committed {
		return fail(ErrConflict)
	}

	now := time.Now().UTC()
	_, week := now.ISOWeek()
	order := Order{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		Lines:         lines,
		ProductTotal:  productTotal,
		DeliveryFee:   deliveryFee,
		GrandTotal:    grandTotal,
		PaymentMethod: req.PaymentMethod,
		AmountPaid:    req.AmountPaid,
		Outstanding:   outstanding,
		Status:        StatusPending,
		DeliveryWeek:  week,
		CreatedBy:     shared.OperatorFromContext(ctx).Name,
		CreatedAt:     now,
	}
	order, err = s.repo.Append(ctx, order)
	if err != nil {
		s.compensate(ctx, requests)
		return fail(err)
	}

	if err := s.postIncome(ctx, order, req.AmountPaid, 0, string(req.PaymentMethod)); err != nil {
		s.compensate(ctx, requests)
		return fail(err)
	}

	if s.notifier != nil {
		s.notifier.OrderConfirmed(ctx, order.ID)
	}
	return order, nil
}

// RecordPayment collects part or all of an outstanding balance and posts
// the income entries deferred at submission time.
func (s *Service) RecordPayment(ctx context.Context, orderID string, req RecordPaymentRequest) (Order, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Order{}, err
	}
	var prevPaid int64
	order, err := s.repo.mutate(ctx, orderID, func(o *Order) error {
		if req.Amount > o.Outstanding {
			return shared.NewValidationError("amount", fmt.Sprintf("exceeds outstanding balance of %d", o.Outstanding))
		}
		prevPaid = o.AmountPaid
		o.AmountPaid += req.Amount
		o.Outstanding -= req.Amount
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	method := req.Method
	if method == "" {
		method = string(PaymentCash)
	}
	if err := s.postIncome(ctx, order, req.Amount, prevPaid, method); err != nil {
		return Order{}, err
	}
	return order, nil
}

// MarkDelivered flips the order status.
func (s *Service) MarkDelivered(ctx context.Context, orderID string) (Order, error) {
	return s.repo.mutate(ctx, orderID, func(o *Order) error {
		o.Status = StatusDelivered
		return nil
	})
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, orderID string) (Order, error) {
	return s.repo.Get(ctx, orderID)
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Order, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) priceLines(ctx context.Context, reqs []LineRequest) ([]Line, int64, error) {
	merged := make(map[string]int64)
	order := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if _, seen := merged[req.ProductID]; !seen {
			order = append(order, req.ProductID)
		}
		merged[req.ProductID] += req.Quantity
	}

	var (
		lines []Line
		total int64
	)
	for _, productID := range order {
		product, err := s.catalog.Get(ctx, productID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, 0, shared.NewValidationError("lines", "references unknown product "+productID)
			}
			return nil, 0, err
		}
		qty := merged[productID]
		subtotal := qty * product.UnitPrice
		lines = append(lines, Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    qty,
			UnitPrice:   product.UnitPrice,
			Subtotal:    subtotal,
		})
		total += subtotal
	}
	return lines, total, nil
}

// reconcilePayment enforces the per-method rules and derives the
// outstanding balance.
func reconcilePayment(method PaymentMethod, grandTotal, paid int64) (int64, error) {
	switch method {
	case PaymentCash, PaymentTransfer:
		if paid != grandTotal {
			return 0, &PaymentMismatchError{Method: method, GrandTotal: grandTotal, Paid: paid}
		}
		return 0, nil
	case PaymentCredit:
		if paid != 0 {
			return 0, &PaymentMismatchError{Method: method, GrandTotal: grandTotal, Paid: paid}
		}
		return grandTotal, nil
	case PaymentPartial:
		if paid <= 0 || paid >= grandTotal {
			return 0, &PaymentMismatchError{Method: method, GrandTotal: grandTotal, Paid: paid}
		}
		return grandTotal - paid, nil
	default:
		return 0, ErrUnknownPaymentMethod
	}
}

// postIncome books the product/delivery income for an amount collected
// against the order. Credit submissions pay zero and post nothing.
func (s *Service) postIncome(ctx context.Context, order Order, amount, prevPaid int64, method string) error {
	if amount <= 0 {
		return nil
	}
	productPart, deliveryPart := SplitPayment(amount, prevPaid, order.ProductTotal, order.DeliveryFee)
	if productPart > 0 {
		_, err := s.cash.Post(ctx, cashflow.Entry{
			Date:    time.Now().UTC(),
			Type:    cashflow.EntryProductIncome,
			Amount:  productPart,
			Concept: fmt.Sprintf("Pedido %s - %s", order.ID, order.CustomerName),
			Method:  method,
			OrderID: order.ID,
		})
		if err != nil {
			return err
		}
	}
	if deliveryPart > 0 {
		_, err := s.cash.Post(ctx, cashflow.Entry{
			Date:    time.Now().UTC(),
			Type:    cashflow.EntryDeliveryIncome,
			Amount:  deliveryPart,
			Concept: fmt.Sprintf("Domicilio pedido %s", order.ID),
			Method:  method,
			OrderID: order.ID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// compensate restores quantities after a post-decrement failure so no
// error leaves inventory partially updated.
func (s *Service) compensate(ctx context.Context, requests []inventory.Request) {
	for _, req := range requests {
		_ = s.stock.Restock(ctx, req.ProductID, req.Quantity)
	}
}
