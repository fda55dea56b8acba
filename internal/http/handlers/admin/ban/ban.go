// Package ban реализует HTTP-обработчик блокировки пользователя.
// Заблокированному пользователю перестают выдаваться токены доступа.
package ban

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/errs"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
)

// Request — структура входных данных для блокировки.
type Request struct {
	Banned bool `json:"banned"`
}

// Service описывает интерфейс управления блокировкой пользователей.
type Service interface {
	SetUserBanned(ctx context.Context, id int64, banned bool) error
}

// Handler обрабатывает HTTP-запросы на блокировку пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Заблокировать или разблокировать пользователя
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param userID path int true "Идентификатор пользователя"
// @Param request body Request true "Флаг блокировки"
// @Success 200 {object} response.Response "Состояние обновлено"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{userID}/ban [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.ban"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		log.Error("invalid user id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.SetUserBanned(r.Context(), userID, req.Banned); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			log.Warn("user not found", sl.UserID(userID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to update ban state", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update ban state"))
		return
	}

	log.Info("ban state updated", sl.UserID(userID), slog.Bool("banned", req.Banned))
	render.JSON(w, r, response.OK())
}
