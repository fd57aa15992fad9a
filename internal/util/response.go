package util

import (
	"errors"
	"net/http"

	"practice_exam_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the error envelope. Successful calls return their payload as is.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message replies with a plain text confirmation.
func Message(c *gin.Context, message string) {
	c.String(http.StatusOK, message)
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, msg string, err error) {
	logger.Log.Error(msg,
		zap.Error(err),
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(RequestIDKey)))
	InternalServerError(c)
}

// HandleError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a generic 500 with fallback as the log message.
func HandleError(c *gin.Context, fallback string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrQuestionNotFound), errors.Is(err, ErrSessionNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, ErrQuestionExists), errors.Is(err, ErrSessionExists),
		errors.Is(err, ErrSessionCompleted), errors.Is(err, ErrVersionConflict):
		Conflict(c, err.Error())
	default:
		LogInternalError(c, fallback, err)
	}
}
