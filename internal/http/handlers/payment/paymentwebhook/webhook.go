// Package paymentwebhook реализует HTTP-обработчик событий платёжного шлюза.
//
// Handler проверяет подпись запроса, извлекает ссылку на платёж из
// метаданных события и делегирует перевод платежа в терминальное состояние
// сервису платежей. Повторная доставка события — штатная ситуация: она
// завершается успешным ответом без побочных эффектов.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// Service описывает интерфейс бизнес-логики обработки событий шлюза.
type Service interface {
	MarkTerminalFromGateway(ctx context.Context, metadataPaymentID, gatewayID,
		gatewayStatus string) (*models.Payment, error)
}

// Handler обрабатывает webhook-запросы платёжного шлюза.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый Handler с переданными логгером, сервисом и секретом подписи.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Payload — структура события платёжного шлюза.
type Payload struct {
	Event  string `json:"event"`
	Object struct {
		ID       string            `json:"id"`
		Status   string            `json:"status"`
		Metadata map[string]string `json:"metadata"`
	} `json:"object"`
}

// Проверка подписи webhook (X-Api-Signature)
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	const (
		PaymentSucceeded = "payment.succeeded"
		PaymentCanceled  = "payment.canceled"
		PaymentRefunded  = "payment.refunded"
	)

	switch strings.ToLower(payload.Event) {
	case PaymentSucceeded, PaymentCanceled, PaymentRefunded:
		_, err := h.service.MarkTerminalFromGateway(r.Context(),
			payload.Object.Metadata["payment_id"], payload.Object.ID, payload.Object.Status)
		if err != nil {
			// Повторное событие: переход уже совершён, отвечаем успехом,
			// чтобы шлюз прекратил доставку.
			if errors.Is(err, errs.ErrInvalidTransition) {
				log.Info("duplicate webhook event ignored",
					slog.String("event", payload.Event),
					slog.String("gateway_payment_id", payload.Object.ID))
				w.WriteHeader(http.StatusOK)
				return
			}
			if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrMalformedInput) {
				log.Error("webhook references unknown payment", sl.Err(err))
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			log.Error("failed to process webhook event", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	default:
		log.Info("ignored webhook event", slog.String("event", payload.Event))
	}

	log.Info("webhook processed successfully",
		slog.String("event", payload.Event),
		slog.String("gateway_payment_id", payload.Object.ID))
	w.WriteHeader(http.StatusOK)
}
