package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/acolheapp/agenda-api/internal/middleware"
	"github.com/acolheapp/agenda-api/internal/models"
	"github.com/acolheapp/agenda-api/internal/service"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

func currentActor(c *gin.Context) service.Actor {
	if claims := claimsFromContext(c); claims != nil {
		return service.Actor{ID: claims.UserID, Role: claims.Role}
	}
	return service.Actor{}
}
