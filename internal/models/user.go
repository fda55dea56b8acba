// Package models содержит доменные структуры системы выдачи доступа:
// пользователей, подписки, платежи и токены доступа.
package models

import "time"

// User представляет пользователя чат-бота.
// Создаётся при первом обращении и никогда не удаляется,
// при активности обновляется поле LastActiveAt.
type User struct {
	ID           int64     // Идентификатор пользователя в чат-платформе
	Username     string    // Отображаемое имя
	CreatedAt    time.Time // Дата первого обращения
	LastActiveAt time.Time // Дата последней активности
	IsBanned     bool      // Признак блокировки
}
