// Package orders turns a submitted order into consistent customer,
// inventory and cash flow records.
package orders

import (
	"errors"
	"fmt"
	"time"
)

// PaymentMethod enumerates how an order is paid.
type PaymentMethod string

const (
	// PaymentCash settles the full amount in bills on delivery.
	PaymentCash PaymentMethod = "cash"
	// PaymentTransfer settles the full amount electronically.
	PaymentTransfer PaymentMethod = "transfer"
	// PaymentCredit defers the whole amount.
	PaymentCredit PaymentMethod = "credit"
	// PaymentPartial collects part now and the rest later.
	PaymentPartial PaymentMethod = "partial"
)

// Status tracks delivery progress.
type Status string

const (
	// StatusPending awaits delivery.
	StatusPending Status = "pending"
	// StatusDelivered has been handed to the customer.
	StatusDelivered Status = "delivered"
)

// Line is one product position of an order.
type Line struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Subtotal    int64  `json:"subtotal"`
}

// Order is the booked fact. Monetary fields reconcile as
// Outstanding = ProductTotal + DeliveryFee - AmountPaid.
type Order struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	Lines         []Line        `json:"lines"`
	ProductTotal  int64         `json:"product_total"`
	DeliveryFee   int64         `json:"delivery_fee"`
	GrandTotal    int64         `json:"grand_total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	AmountPaid    int64         `json:"amount_paid"`
	Outstanding   int64         `json:"outstanding"`
	Status        Status        `json:"status"`
	DeliveryWeek  int           `json:"delivery_week"`
	CreatedBy     string        `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Policy carries the pricing tunables surfaced through configuration.
type Policy struct {
	// DeliveryFee is the fixed charge in COP when delivery is not free.
	DeliveryFee int64
	// FreeDeliveryThreshold waives the fee when the product total reaches
	// it. Zero disables the waiver.
	FreeDeliveryThreshold int64
	// ConflictRetries bounds whole-order retries after a lost inventory
	// race.
	ConflictRetries int
}

// PaymentMismatchError reports an amount paid that does not reconcile
// with the payment method rules.
type PaymentMismatchError struct {
	Method     PaymentMethod
	GrandTotal int64
	Paid       int64
}

func (e *PaymentMismatchError) Error() string {
	return fmt.Sprintf("orders: %s payment of %d does not reconcile with total %d", e.Method, e.Paid, e.GrandTotal)
}

// ErrConflict surfaces after the bounded conflict retries are exhausted.
var ErrConflict = errors.New("orders: lost inventory race, retry the order")

// ErrUnknownPaymentMethod indicates an unsupported method.
var ErrUnknownPaymentMethod = errors.New("orders: unknown payment method")
