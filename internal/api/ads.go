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

type adRoutes struct {
	as service.AdServiceI
	a  *auth.TelegramAuth
}

func NewAdRoutes(handler *gin.RouterGroup, as service.AdServiceI, a *auth.TelegramAuth) {
	r := &adRoutes{as: as, a: a}
	h := handler.Group("/ads")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/start", r.StartAdSession)
		h.POST("/opened", r.MarkAdOpened)
		h.POST("/claim", r.ClaimAd)
	}
}

type StartAdResponse struct {
	Nonce           string `json:"nonce"`
	MinWatchSeconds int    `json:"min_watch_seconds"`
}

func (r *adRoutes) StartAdSession(c *gin.Context) {
	log := logger.Logger()

	user, ok := telegramUser(c)
	if !ok {
		return
	}

	started, err := r.as.Start(c.Request.Context(), user.ID, user.Username)
	if err != nil {
		log.Error("failed to start ad session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start ad session"})
		return
	}

	c.JSON(http.StatusOK, StartAdResponse{
		Nonce:           started.Nonce,
		MinWatchSeconds: started.MinWatchSeconds,
	})
}

type AdNonceRequest struct {
	Nonce string `json:"nonce" binding:"required"`
}

func (r *adRoutes) MarkAdOpened(c *gin.Context) {
	log := logger.Logger()

	user, ok := telegramUser(c)
	if !ok {
		return
	}

	var req AdNonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.as.MarkOpened(c.Request.Context(), user.ID, req.Nonce)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidNonce):
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid_nonce"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "nonce_not_owner"})
		case errors.Is(err, service.ErrAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "already_claimed"})
		default:
			log.Error("failed to mark ad opened", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark ad opened"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type ClaimAdResponse struct {
	DayKey          string `json:"day_key"`
	UserPointsAdded int64  `json:"user_points_added"`
	PoolPointsAdded int64  `json:"pool_points_added"`
}

func (r *adRoutes) ClaimAd(c *gin.Context) {
	log := logger.Logger()

	user, ok := telegramUser(c)
	if !ok {
		return
	}

	var req AdNonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := r.as.Claim(c.Request.Context(), user.ID, req.Nonce)
	if err != nil {
		var tooFast *service.TooFastError
		var dailyLimit *service.DailyLimitError
		var cooldown *service.CooldownError
		switch {
		case errors.Is(err, service.ErrInvalidNonce):
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid_nonce"})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "nonce_not_owner"})
		case errors.Is(err, service.ErrAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "already_claimed"})
		case errors.Is(err, service.ErrNotOpened):
			c.JSON(http.StatusConflict, gin.H{"error": "not_opened"})
		case errors.As(err, &tooFast):
			c.JSON(http.StatusTooEarly, gin.H{
				"error":   "too_fast",
				"elapsed": tooFast.ElapsedSeconds,
				"need":    tooFast.NeedSeconds,
			})
		case errors.As(err, &dailyLimit):
			c.JSON(http.StatusForbidden, gin.H{
				"error": "daily_limit_reached",
				"used":  dailyLimit.Used,
				"limit": dailyLimit.Limit,
			})
		case errors.As(err, &cooldown):
			c.JSON(http.StatusTooEarly, gin.H{
				"error":             "cooldown_active",
				"remaining_seconds": cooldown.RemainingSeconds,
			})
		default:
			log.Error("failed to claim ad", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim ad"})
		}
		return
	}

	c.JSON(http.StatusOK, ClaimAdResponse{
		DayKey:          result.DayKey,
		UserPointsAdded: result.PointsToUser,
		PoolPointsAdded: result.PointsToPool,
	})
}

// telegramUser pulls the authenticated Telegram identity set by the auth
// middleware; a missing value means the middleware chain is miswired.
func telegramUser(c *gin.Context) (*auth.TelegramUserData, bool) {
	log := logger.Logger()

	userData, exists := c.Get("telegram_user")
	if !exists {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	user, ok := userData.(*auth.TelegramUserData)
	if !ok {
		log.Error("invalid type assertion for telegram user data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}

	return user, true
}
