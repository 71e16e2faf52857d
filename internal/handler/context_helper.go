package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/golflink/golflink-api/internal/middleware"
	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/internal/service"
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

func actorFromContext(c *gin.Context) service.ActorMeta {
	actor := service.ActorMeta{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
	if claims := claimsFromContext(c); claims != nil {
		actor.UserID = claims.UserID
	}
	return actor
}
