package orders

// LineRequest asks for one product position.
type LineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
}

// SubmitOrderRequest is the raw user input for a new order.
type SubmitOrderRequest struct {
	CustomerName    string        `json:"customer_name" validate:"required,max=200"`
	CustomerPhone   string        `json:"customer_phone" validate:"required,max=30"`
	CustomerAddress string        `json:"customer_address" validate:"max=300"`
	Lines           []LineRequest `json:"lines" validate:"required,min=1,dive"`
	FreeDelivery    bool          `json:"free_delivery"`
	PaymentMethod   PaymentMethod `json:"payment_method" validate:"required,oneof=cash transfer credit partial"`
	AmountPaid      int64         `json:"amount_paid" validate:"gte=0"`
}

// RecordPaymentRequest collects part or all of an outstanding balance.
type RecordPaymentRequest struct {
	Amount int64  `json:"amount" validate:"gt=0"`
	Method string `json:"method" validate:"omitempty,oneof=cash transfer"`
}
