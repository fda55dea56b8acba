// Package status реализует HTTP-обработчик чтения статуса подписки.
//
// Handler извлекает идентификатор пользователя из URL, запрашивает статус
// через сервис подписок и возвращает его в JSON-формате. Для пользователя
// без записи возвращается бесплатный тариф по умолчанию.
package status

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// Service описывает интерфейс бизнес-логики чтения статуса подписки.
type Service interface {
	GetStatus(ctx context.Context, userID int64) (*models.SubscriptionStatusInfo, error)
}

// Handler обрабатывает HTTP-запросы на чтение статуса подписки.
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
// @Summary Статус подписки пользователя
// @Description Возвращает текущий статус подписки и список доступных команд.
// @Tags Subscriptions
// @Produce  json
// @Param userID path int true "Идентификатор пользователя"
// @Success 200 {object} map[string]any "Статус подписки"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при чтении статуса"
// @Router /subscriptions/{userID} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.status"
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

	info, err := h.service.GetStatus(r.Context(), userID)
	if err != nil {
		log.Error("failed to read subscription status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read subscription status"))
		return
	}

	render.JSON(w, r, response.OKWithData(info))
}
