// Package errs определяет общие виды ошибок доменного слоя.
//
// Обработчики и сервисы различают ошибки через errors.Is и принимают
// решение о реакции: отказ пользователю, тихий no-op или повтор операции.
package errs

import "errors"

var (
	// ErrMalformedInput — входные данные не прошли разбор или валидацию.
	ErrMalformedInput = errors.New("malformed input")

	// ErrTokenInvalid — токен не прошёл проверку: испорчен, подпись не
	// совпала, истёк срок или токен уже погашен. Для вызывающей стороны
	// причины намеренно не различаются, конкретная причина только логируется.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrNotFound — пользователь, подписка или платёж не найдены.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition — попытка перевести запись из терминального
	// состояния. На границе, выполнившей повторную мутацию, трактуется
	// как no-op (идемпотентность), но логируется.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUpstreamUnavailable — хранилище или внешний сервис недоступны.
	// Для операций с хранилищем фатальна и возвращается вызывающему как
	// повторяемая ошибка.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
