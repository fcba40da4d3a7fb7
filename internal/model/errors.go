package model

import "errors"

// Сентинельные ошибки доменного уровня. Обработчики сопоставляют их с
// HTTP статусами в одном месте (delivery/http), сервисы оборачивают причины
// через fmt.Errorf("%w").
var (
	ErrStoryNotFound      = errors.New("story not found")
	ErrCharacterNotFound  = errors.New("character not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrGenerationFailed скрывает любую причину отказа внешнего API генерации.
	ErrGenerationFailed = errors.New("failed to generate story")
)
