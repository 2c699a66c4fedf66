package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/lawravasco2207/phone-store-sub001/internal/config"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
)

const (
	MethodStripe = "stripe"
	MethodPayPal = "paypal"
	MethodMpesa  = "mpesa"
	MethodCOD    = "cod"
)

// Service decides whether a checkout's payment proof is accepted.
// Outside production every proof is trusted as-is; in production the
// matching provider is asked synchronously.
type Service struct {
	Production bool
	Stripe     *StripeClient
	PayPal     *PayPalClient
	Mpesa      *MpesaClient
}

func NewService(cfg *config.Config) *Service {
	s := &Service{Production: cfg.IsProduction()}
	if cfg.STRIPE_SECRET_KEY != "" {
		s.Stripe = NewStripeClient(cfg.STRIPE_SECRET_KEY)
	}
	if cfg.PAYPAL_CLIENT_ID != "" && cfg.PAYPAL_CLIENT_SECRET != "" {
		s.PayPal = NewPayPalClient(cfg.PAYPAL_CLIENT_ID, cfg.PAYPAL_CLIENT_SECRET, cfg.PAYPAL_SANDBOX != "false")
	}
	if cfg.MPESA_BASE_URL != "" {
		s.Mpesa = NewMpesaClient(cfg.MPESA_BASE_URL, cfg.MPESA_CONSUMER_KEY, cfg.MPESA_CONSUMER_SECRET)
	}
	return s
}

func KnownMethod(method string) bool {
	switch method {
	case MethodStripe, MethodPayPal, MethodMpesa, MethodCOD:
		return true
	}
	return false
}

// Verify returns the payment status to persist for the given proof.
// Cash-on-delivery never completes at checkout time.
func (s *Service) Verify(ctx context.Context, method, providerRef string, amount float64) (string, error) {
	method = strings.ToLower(method)
	if !KnownMethod(method) {
		return "", fmt.Errorf("unknown payment method %q", method)
	}

	if method == MethodCOD {
		return models.PaymentStatusPending, nil
	}

	if !s.Production {
		return models.PaymentStatusCompleted, nil
	}

	if providerRef == "" {
		return "", fmt.Errorf("missing provider reference for %s", method)
	}

	switch method {
	case MethodStripe:
		if s.Stripe == nil {
			return "", fmt.Errorf("stripe is not configured")
		}
		ok, err := s.Stripe.VerifyPaymentIntent(ctx, providerRef, amount)
		return statusFor(ok), err
	case MethodPayPal:
		if s.PayPal == nil {
			return "", fmt.Errorf("paypal is not configured")
		}
		ok, err := s.PayPal.VerifyOrder(ctx, providerRef)
		return statusFor(ok), err
	case MethodMpesa:
		if s.Mpesa == nil {
			return "", fmt.Errorf("mpesa is not configured")
		}
		ok, err := s.Mpesa.VerifyReceipt(ctx, providerRef)
		return statusFor(ok), err
	}
	return "", fmt.Errorf("unknown payment method %q", method)
}

func statusFor(ok bool) string {
	if ok {
		return models.PaymentStatusCompleted
	}
	return models.PaymentStatusFailed
}
