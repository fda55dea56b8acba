package paymentprovider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// YooKassaClient реализует Gateway поверх HTTP API ЮKassa.
type YooKassaClient struct {
	shopID     string
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewYooKassaClient создаёт новый клиент ЮKassa с ограниченным таймаутом
// исходящих запросов.
func NewYooKassaClient(shopID, secretKey string, timeout time.Duration) *YooKassaClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &YooKassaClient{
		shopID:     shopID,
		secretKey:  secretKey,
		apiURL:     "https://api.yookassa.ru/v3",
		httpClient: &http.Client{Timeout: timeout},
	}
}

type yookassaCreateRequest struct {
	Amount struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"amount"`
	Capture      bool `json:"capture"`
	Confirmation struct {
		Type      string `json:"type"`
		ReturnURL string `json:"return_url"`
	} `json:"confirmation"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type yookassaCreateResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Confirmation struct {
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
}

// CreateCharge отправляет запрос на создание платежа. Внутренний
// payment_id передаётся как Idempotence-Key и в metadata, что позволяет
// сопоставить последующий webhook с записью журнала.
func (c *YooKassaClient) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	const op = "paymentprovider.CreateCharge"

	var body yookassaCreateRequest
	body.Amount.Value = fmt.Sprintf("%.2f", req.Amount)
	body.Amount.Currency = req.Currency
	body.Capture = true
	body.Confirmation.Type = "redirect"
	body.Confirmation.ReturnURL = req.ReturnURL
	body.Description = req.Description
	body.Metadata = map[string]string{
		"payment_id": req.PaymentID,
		"user_id":    fmt.Sprintf("%d", req.UserID),
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/payments", &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.shopID + ":" + c.secretKey))
	httpReq.Header.Set("Authorization", "Basic "+auth)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotence-Key", req.PaymentID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var created yookassaCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Charge{
		GatewayID:       created.ID,
		ConfirmationURL: created.Confirmation.ConfirmationURL,
	}, nil
}

// NormalizeStatus переводит словарь статусов ЮKassa в доменный набор.
func (c *YooKassaClient) NormalizeStatus(gatewayStatus string) models.PaymentStatus {
	switch strings.ToLower(gatewayStatus) {
	case "succeeded", "payment.succeeded":
		return models.PaymentSuccess
	case "canceled", "payment.canceled":
		return models.PaymentCancelled
	case "refunded", "refund.succeeded":
		return models.PaymentRefunded
	default:
		return models.PaymentFailed
	}
}
