// Package middleware содержит HTTP middleware.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader — заголовок сквозного идентификатора запроса.
const RequestIDHeader = "X-Request-ID"

// RequestID прокидывает идентификатор запроса: берет его из заголовка или
// генерирует новый, кладет в логгер контекста и возвращает клиенту.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}
