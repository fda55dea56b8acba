// Package paymentcreate реализует HTTP-обработчик создания платежа.
//
// Handler принимает JSON-запрос с тарифом и способом оплаты, регистрирует
// платёж в журнале и возвращает ссылку для подтверждения оплаты.
package paymentcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
	paymentsvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/payment"
)

// Request — структура входных данных для создания платежа.
type Request struct {
	UserID int64  `json:"user_id" validate:"required"`
	Plan   string `json:"plan" validate:"required,oneof=basic standard premium"`
	Method string `json:"method" validate:"required,oneof=card manual"`
}

// Service описывает интерфейс бизнес-логики создания платежа.
type Service interface {
	Create(ctx context.Context, userID int64, plan, method string) (*paymentsvc.CreateResult, error)
}

// Handler обрабатывает HTTP-запросы на создание платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать платёж
// @Description Регистрирует платёж и возвращает ссылку для подтверждения оплаты.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Параметры платежа"
// @Success 200 {object} map[string]any "Платёж создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Платёжный шлюз недоступен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании платежа"
// @Router /payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	result, err := h.service.Create(r.Context(), req.UserID, req.Plan, req.Method)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrMalformedInput):
			log.Error("invalid payment request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid payment request"))
		case errors.Is(err, errs.ErrUpstreamUnavailable):
			log.Error("payment gateway unavailable", sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("payment gateway unavailable"))
		default:
			log.Error("failed to create payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create payment"))
		}
		return
	}

	log.Info("payment created", slog.String("payment_id", result.PaymentID), sl.UserID(req.UserID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"payment_id":       result.PaymentID,
		"confirmation_url": result.ConfirmationURL,
	}))
}
