package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"tonpoints/internal/service"
	"tonpoints/pkg/auth"
	"tonpoints/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type userRoutes struct {
	us service.UserServiceI
	a  *auth.TelegramAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.TelegramAuth) {
	r := &userRoutes{us: us, a: a}
	h := handler.Group("/users")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.POST("/", r.RegisterUser)
		h.GET("/leaderboard", r.GetLeaderboard)
		h.GET("/:telegram_id", r.GetProfile)
	}

	items := handler.Group("/items")
	items.Use(a.TelegramAuthMiddleware())
	{
		items.GET("/", r.ListItems)
	}

	referral := handler.Group("/referral")
	referral.Use(a.TelegramAuthMiddleware())
	{
		referral.POST("/apply", r.ApplyReferral)
	}
}

type RegisterUserRequest struct {
	ReferralCode string `json:"referral_code"`
}

type RegisterUserResponse struct {
	TelegramID   int64  `json:"telegram_id"`
	Points       int64  `json:"points"`
	ReferralCode string `json:"referral_code"`
}

func (r *userRoutes) RegisterUser(c *gin.Context) {
	log := logger.Logger()

	user, ok := telegramUser(c)
	if !ok {
		return
	}

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	u, err := r.us.RegisterUser(c.Request.Context(), user.ID, user.Username, req.ReferralCode)
	if err != nil {
		log.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, RegisterUserResponse{
		TelegramID:   u.TelegramID,
		Points:       u.Points,
		ReferralCode: u.ReferralCode,
	})
}

func (r *userRoutes) GetProfile(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	profile, err := r.us.GetProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no user associated with the provided telegram_id"})
			return
		}
		log.Error("failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	inventory := make([]gin.H, len(profile.Inventory))
	for i, inv := range profile.Inventory {
		var expires *time.Time
		if inv.ExpiresAt != nil {
			t := inv.ExpiresAt.UTC()
			expires = &t
		}
		inventory[i] = gin.H{
			"item_id":        inv.ItemID,
			"sku":            inv.SKU,
			"name":           inv.Name,
			"quantity":       inv.Quantity,
			"points_per_day": inv.PointsPerDay,
			"expires_at":     expires,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"telegram_id":   profile.User.TelegramID,
		"username":      profile.User.Username,
		"points":        profile.User.Points,
		"referral_code": profile.User.ReferralCode,
		"referrer_id":   profile.User.ReferrerID,
		"created_at":    profile.User.CreatedAt,
		"inventory":     inventory,
		"today": gin.H{
			"day_key":          profile.Today.DayKey,
			"my_participation": profile.Today.Tickets,
			"pool_points":      profile.Today.PoolPoints,
			"distributed":      profile.Today.Distributed,
		},
	})
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	users, err := r.us.GetLeaderboard(c.Request.Context())
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	var response []gin.H
	for _, user := range users {
		response = append(response, gin.H{
			"telegram_id": user.TelegramID,
			"username":    user.Username,
			"points":      user.Points,
		})
	}

	c.JSON(http.StatusOK, response)
}

func (r *userRoutes) ListItems(c *gin.Context) {
	log := logger.Logger()

	items, err := r.us.ListActiveItems(c.Request.Context())
	if err != nil {
		log.Error("failed to list items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list items"})
		return
	}

	out := make([]gin.H, len(items))
	for i, it := range items {
		out[i] = gin.H{
			"id":             it.ID,
			"sku":            it.SKU,
			"name":           it.Name,
			"price_ton":      it.PriceTON,
			"points_per_day": it.PointsPerDay,
		}
	}

	c.JSON(http.StatusOK, gin.H{"items": out})
}

type ApplyReferralRequest struct {
	Code string `json:"code" binding:"required"`
}

func (r *userRoutes) ApplyReferral(c *gin.Context) {
	log := logger.Logger()

	user, ok := telegramUser(c)
	if !ok {
		return
	}

	var req ApplyReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.us.ApplyReferral(c.Request.Context(), user.ID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReferralSelf):
			c.JSON(http.StatusBadRequest, gin.H{"error": "self_referral"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			log.Error("failed to apply referral", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply referral"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
