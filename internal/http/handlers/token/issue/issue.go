// Package issue реализует HTTP-обработчик выдачи одноразовых токенов доступа.
//
// Handler принимает JSON-запрос с идентификатором пользователя и сроком
// подписки, вызывает бизнес-логику выдачи токена и возвращает сам токен
// вместе с deep-link для подтверждения в целевом боте.
package issue

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
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
	tokensvc "github.com/magabrotheeeer/subscription-gatekeeper/internal/services/token"
)

// Request — структура входных данных для выдачи токена.
// PlanDays равный нулю допустим: такой токен подтверждает бесплатный тариф.
type Request struct {
	UserID   int64  `json:"user_id" validate:"required"`
	Username string `json:"username"`
	PlanDays int    `json:"plan_days" validate:"min=0"`
}

// Service описывает интерфейс бизнес-логики выдачи токенов.
type Service interface {
	VerificationURL(ctx context.Context, userID int64, username string, planDays int) (string, string, error)
}

// Handler обрабатывает HTTP-запросы на выдачу токенов доступа.
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
// @Summary Выдать токен доступа
// @Description Выдает одноразовый токен доступа и ссылку для подтверждения в боте.
// @Tags Tokens
// @Accept  json
// @Produce  json
// @Param request body Request true "Параметры токена"
// @Success 200 {object} map[string]any "Токен выдан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Пользователь заблокирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при выдаче токена"
// @Router /tokens [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.token.issue"
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

	token, url, err := h.service.VerificationURL(r.Context(), req.UserID, req.Username, req.PlanDays)
	if err != nil {
		if errors.Is(err, tokensvc.ErrUserBanned) {
			log.Warn("refused to issue token for banned user", sl.UserID(req.UserID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("user is banned"))
			return
		}
		log.Error("failed to issue token", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not issue token"))
		return
	}

	log.Info("token issued", sl.UserID(req.UserID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":            token,
		"verification_url": url,
	}))
}
