package payment

import (
	"context"
	"fmt"

	"github.com/plutov/paypal/v4"
)

type PayPalClient struct {
	clientID string
	secret   string
	base     string
}

func NewPayPalClient(clientID, secret string, sandbox bool) *PayPalClient {
	base := paypal.APIBaseLive
	if sandbox {
		base = paypal.APIBaseSandBox
	}
	return &PayPalClient{clientID: clientID, secret: secret, base: base}
}

// VerifyOrder asks PayPal for the order referenced at checkout and
// accepts it only when the order is COMPLETED.
func (p *PayPalClient) VerifyOrder(ctx context.Context, orderID string) (bool, error) {
	c, err := paypal.NewClient(p.clientID, p.secret, p.base)
	if err != nil {
		return false, fmt.Errorf("paypal: %w", err)
	}
	if _, err := c.GetAccessToken(ctx); err != nil {
		return false, fmt.Errorf("paypal: token: %w", err)
	}

	order, err := c.GetOrder(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("paypal: get order: %w", err)
	}
	return order.Status == "COMPLETED", nil
}
