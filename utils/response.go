package utils

import (
	"errors"
	"net/http"

	"salonpro-agenda/logger"
	"salonpro-agenda/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// StatusForKind maps a domain error kind to its HTTP status.
func StatusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation, models.KindInvalidFilter:
		return http.StatusBadRequest
	case models.KindInvalidState, models.KindInvalidTransition, models.KindDuplicateName:
		return http.StatusConflict
	case models.KindPermission:
		return http.StatusForbidden
	case models.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// RespondWithDomainError writes the structured body for domain errors and a
// generic 500 for everything else.
func RespondWithDomainError(c *gin.Context, err error, fallback string) {
	var de *models.DomainError
	if errors.As(err, &de) {
		c.AbortWithStatusJSON(StatusForKind(de.Kind), gin.H{
			"error":   de.Error(),
			"kind":    de.Kind,
			"entity":  de.Entity,
			"field":   de.Field,
			"id":      de.ID,
			"message": de.Message,
		})
		return
	}
	logger.FromContext(c.Request.Context()).Error(fallback, zap.Error(err))
	RespondWithError(c, http.StatusInternalServerError, fallback)
}
