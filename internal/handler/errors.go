package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"rollbook/internal/model"
)

// fail writes err as {"message", "code"}. Anything that is not a domain error is a 500.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": model.Message(err), "code": "validation"})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": model.Message(err), "code": "not_found"})
	case errors.Is(err, model.ErrMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"message": model.Message(err), "code": "mismatch"})
	case errors.Is(err, model.ErrCapacity):
		c.JSON(http.StatusBadRequest, gin.H{"message": model.Message(err), "code": "capacity"})
	default:
		_ = c.Error(err)
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error", "code": "internal"})
	}
}

// badBody reports a body that could not be decoded or failed its binding rules.
func badBody(c *gin.Context, err error) {
	msg := "Invalid request body"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == statusTag {
				msg = statusMessage
				break
			}
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": msg, "code": "validation"})
}
