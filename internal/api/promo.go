package api

import (
	"errors"
	"net/http"

	"tonpoints/internal/service"
	"tonpoints/pkg/auth"
	"tonpoints/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type promoRoutes struct {
	ps service.PromoServiceI
	a  *auth.TelegramAuth
}

func NewPromoRoutes(handler *gin.RouterGroup, ps service.PromoServiceI, a *auth.TelegramAuth) {
	r := &promoRoutes{ps: ps, a: a}
	h := handler.Group("/promo")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/redeem", r.RedeemPromo)
	}
}

type RedeemPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

func (r *promoRoutes) RedeemPromo(c *gin.Context) {
	log := logger.Logger()

	user, ok := telegramUser(c)
	if !ok {
		return
	}

	var req RedeemPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	granted, err := r.ps.Redeem(c.Request.Context(), user.ID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromoDisabled):
			c.JSON(http.StatusForbidden, gin.H{"error": "promo_disabled"})
		case errors.Is(err, service.ErrPromoInactive):
			c.JSON(http.StatusNotFound, gin.H{"error": "promo_invalid"})
		case errors.Is(err, service.ErrPromoExhausted):
			c.JSON(http.StatusConflict, gin.H{"error": "promo_exhausted"})
		case errors.Is(err, service.ErrPromoAlreadyRedeemed):
			c.JSON(http.StatusConflict, gin.H{"error": "promo_already_redeemed"})
		default:
			log.Error("failed to redeem promo", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to redeem promo"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"points_granted": granted,
	})
}
