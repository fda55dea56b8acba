// Package options реализует HTTP-обработчик чтения вариантов продления подписки.
package options

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/http/response"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

// Service описывает интерфейс бизнес-логики вариантов продления.
type Service interface {
	RenewalOptions() []models.RenewalOption
}

// Handler обрабатывает HTTP-запросы на чтение вариантов продления.
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
// @Summary Варианты продления подписки
// @Description Возвращает список тарифных планов с ценами и сроками.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Список вариантов"
// @Router /subscriptions/options [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]any{
		"options": h.service.RenewalOptions(),
	}))
}
