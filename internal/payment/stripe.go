package payment

import (
	"context"
	"fmt"
	"math"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

type StripeClient struct {
	api *client.API
}

func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

// VerifyPaymentIntent checks that the intent succeeded and that its
// amount matches the order total (stripe amounts are in minor units).
func (s *StripeClient) VerifyPaymentIntent(ctx context.Context, intentID string, amount float64) (bool, error) {
	pi, err := s.api.PaymentIntents.Get(intentID, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return false, fmt.Errorf("stripe: %w", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return false, nil
	}

	want := int64(math.Round(amount * 100))
	if pi.Amount != want {
		return false, nil
	}
	return true, nil
}
