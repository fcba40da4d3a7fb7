package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"storyforge-server/internal/model"
)

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

// handleServiceError сопоставляет доменные ошибки с HTTP статусами в одном
// месте. Детали внутренних ошибок уходят только в лог, клиент получает
// общее сообщение.
func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var resp APIError

	switch {
	case errors.Is(err, model.ErrStoryNotFound):
		statusCode = http.StatusNotFound
		resp = APIError{Message: "Story not found"}
	case errors.Is(err, model.ErrCharacterNotFound):
		statusCode = http.StatusNotFound
		resp = APIError{Message: "Character not found"}
	case errors.Is(err, model.ErrUserNotFound):
		statusCode = http.StatusNotFound
		resp = APIError{Message: "User not found"}
	case errors.Is(err, model.ErrUserAlreadyExists):
		statusCode = http.StatusConflict
		resp = APIError{Message: "Username already exists"}
	case errors.Is(err, model.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		resp = APIError{Message: "Invalid username or password"}
	case errors.Is(err, model.ErrGenerationFailed):
		log.Error().Err(err).Msg("story generation failed")
		statusCode = http.StatusInternalServerError
		resp = APIError{Message: "Failed to generate story"}
	case strings.Contains(err.Error(), "validation error"):
		statusCode = http.StatusBadRequest
		resp = APIError{Message: err.Error()}
	default:
		log.Error().Err(err).Msg("unhandled internal error")
		statusCode = http.StatusInternalServerError
		resp = APIError{Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, resp)
}
