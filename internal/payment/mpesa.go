package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MpesaClient is a thin client for the Daraja API. There is no
// established Go SDK, so this talks HTTP directly.
type MpesaClient struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	http           *http.Client
}

func NewMpesaClient(baseURL, consumerKey, consumerSecret string) *MpesaClient {
	return &MpesaClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		http:           &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *MpesaClient) token(ctx context.Context) (string, error) {
	u := m.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(m.consumerKey, m.consumerSecret)

	res, err := m.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("mpesa: token: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mpesa: token: status %d", res.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("mpesa: token: %w", err)
	}
	return body.AccessToken, nil
}

// VerifyReceipt asks Daraja whether the given transaction id completed.
func (m *MpesaClient) VerifyReceipt(ctx context.Context, receipt string) (bool, error) {
	tok, err := m.token(ctx)
	if err != nil {
		return false, err
	}

	u := m.baseURL + "/mpesa/transactionstatus/v1/query?transaction_id=" + url.QueryEscape(receipt)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	res, err := m.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("mpesa: query: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("mpesa: query: status %d", res.StatusCode)
	}

	var body struct {
		ResultCode json.Number `json:"ResultCode"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("mpesa: query: %w", err)
	}
	return body.ResultCode.String() == "0", nil
}

// Callback is the payload Daraja posts after an STK push. Only the
// fields the handler consumes are mapped.
type Callback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// Receipt extracts the MpesaReceiptNumber metadata item, if present.
func (cb *Callback) Receipt() string {
	for _, item := range cb.Body.StkCallback.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

func (cb *Callback) Succeeded() bool {
	return cb.Body.StkCallback.ResultCode == 0
}
