package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "oral-scan/internal/platform/errors"
)

const (
	msgModelNotLoaded = "Model not loaded"
	msgTooLarge       = "Request body too large"
)

// errorResponse тело любого ответа с ошибкой
type errorResponse struct {
	Error string `json:"error"`
}

// statusOf сопоставляет вид ошибки HTTP-статусу и тексту ответа.
func statusOf(err error) (int, string) {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest, apperrors.MessageOf(err)
	case apperrors.KindNotFound:
		return http.StatusNotFound, apperrors.MessageOf(err)
	case apperrors.KindTooLarge:
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case apperrors.KindModel:
		return http.StatusInternalServerError, msgModelNotLoaded
	default:
		return http.StatusInternalServerError, apperrors.MessageOf(err)
	}
}

func respondError(c *gin.Context, err error) {
	status, message := statusOf(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}

// recovered превращает панику обработчика в обычный JSON-ответ с ошибкой.
func recovered(c *gin.Context, v any) {
	respondError(c, apperrors.New(apperrors.KindInternal, "http.recover", fmt.Sprint(v)))
}

func badRequest(c *gin.Context, message string) {
	respondError(c, apperrors.New(apperrors.KindValidation, "http", message))
}
