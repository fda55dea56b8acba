// Package access реализует HTTP-обработчик проверки доступа к команде бота.
//
// Handler отвечает на вопрос «может ли пользователь выполнить команду»:
// активная платная подписка открывает все команды, остальные пользователи
// ограничены списком бесплатного уровня.
package access

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
)

// Service описывает интерфейс бизнес-логики проверки доступа.
type Service interface {
	CheckCommandAccess(ctx context.Context, userID int64, command string) (bool, error)
}

// Handler обрабатывает HTTP-запросы на проверку доступа к командам.
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
// @Summary Проверить доступ к команде
// @Description Сообщает, доступна ли пользователю команда бота при его текущей подписке.
// @Tags Subscriptions
// @Produce  json
// @Param userID path int true "Идентификатор пользователя"
// @Param command query string true "Команда бота"
// @Success 200 {object} map[string]any "Результат проверки"
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при проверке доступа"
// @Router /subscriptions/{userID}/access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.access"
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

	command := r.URL.Query().Get("command")
	if command == "" {
		log.Error("missing command parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing command parameter"))
		return
	}

	allowed, err := h.service.CheckCommandAccess(r.Context(), userID, command)
	if err != nil {
		log.Error("failed to check command access", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check command access"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"allowed": allowed,
		"command": command,
	}))
}
