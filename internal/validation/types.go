package validation

// PlaceOrderRequest carries the place-order inputs, whether they came from an agent event or the HTTP API.
type PlaceOrderRequest struct {
	ProductName     string `json:"product_name" validate:"required,noplaceholder"`
	Name            string `json:"name" validate:"required,noplaceholder"`
	Quantity        string `json:"quantity" validate:"omitempty,positiveint"` // defaults to "1"
	ShippingAddress string `json:"shipping_address" validate:"required,noplaceholder"`
	PaymentMethod   string `json:"payment_method" validate:"required,noplaceholder"`
}

// InitiateReturnRequest is the body of POST /returns/:id
type InitiateReturnRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
