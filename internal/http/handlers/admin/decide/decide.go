// Package decide реализует HTTP-обработчик решения администратора по
// платежу с ручным подтверждением.
//
// Handler принимает решение approved или rejected и переводит платёж в
// соответствующее терминальное состояние. Одобрение автоматически выдает
// подписку и токен доступа через сервис платежей.
package decide

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// Request — структура входных данных с решением администратора.
type Request struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

// Service описывает интерфейс бизнес-логики платёжного журнала.
type Service interface {
	MarkTerminal(ctx context.Context, paymentID string, status models.PaymentStatus) (*models.Payment, error)
}

// Handler обрабатывает HTTP-запросы с решениями по платежам.
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
// @Summary Решение по платежу
// @Description Одобряет или отклоняет платёж с ручным подтверждением.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param paymentID path string true "Идентификатор платежа"
// @Param request body Request true "Решение администратора"
// @Success 200 {object} map[string]any "Решение принято"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 409 {object} response.ErrorResponse "Платёж уже в терминальном состоянии"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при обработке решения"
// @Router /admin/payments/{paymentID}/decision [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.decide"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	paymentID := chi.URLParam(r, "paymentID")
	if paymentID == "" {
		log.Error("missing payment id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing payment id"))
		return
	}

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

	p, err := h.service.MarkTerminal(r.Context(), paymentID, models.PaymentStatus(req.Decision))
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrNotFound):
			log.Warn("payment not found", slog.String("payment_id", paymentID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment not found"))
		case errors.Is(err, errs.ErrInvalidTransition):
			log.Warn("payment already terminal", slog.String("payment_id", paymentID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("payment already decided"))
		default:
			log.Error("failed to process decision", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not process decision"))
		}
		return
	}

	log.Info("payment decision recorded",
		slog.String("payment_id", p.PaymentID),
		slog.String("status", string(p.Status)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"payment_id": p.PaymentID,
		"status":     p.Status,
	}))
}
