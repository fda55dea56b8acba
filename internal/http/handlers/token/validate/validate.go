// Package validate реализует HTTP-обработчик погашения токенов доступа.
//
// Handler принимает токен, проверяет его и атомарно погашает. Успешное
// погашение возвращает полезную нагрузку токена; любая причина отказа
// снаружи выглядит одинаково — 401 без деталей.
package validate

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
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/granttoken"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
)

// Request — структура входных данных для погашения токена.
type Request struct {
	Token string `json:"token" validate:"required"`
}

// Service описывает интерфейс бизнес-логики проверки токенов.
type Service interface {
	Validate(ctx context.Context, token string) (*granttoken.Payload, error)
}

// Handler обрабатывает HTTP-запросы на погашение токенов доступа.
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
// @Summary Погасить токен доступа
// @Description Проверяет и одноразово погашает токен. Возвращает полезную нагрузку токена.
// @Tags Tokens
// @Accept  json
// @Produce  json
// @Param request body Request true "Токен доступа"
// @Success 200 {object} map[string]any "Токен погашен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Токен недействителен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при проверке токена"
// @Router /tokens/validate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.token.validate"
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

	payload, err := h.service.Validate(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, errs.ErrTokenInvalid) {
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid token"))
			return
		}
		log.Error("failed to validate token", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not validate token"))
		return
	}

	log.Info("token redeemed", sl.UserID(payload.UserID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user_id":   payload.UserID,
		"plan_days": payload.PlanDays,
	}))
}
