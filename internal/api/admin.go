package api

import (
	"net/http"
	"time"

	"tonpoints/internal/middleware"
	"tonpoints/internal/model"
	"tonpoints/internal/service"
	"tonpoints/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type adminRoutes struct {
	us service.UserServiceI
	ps service.PoolServiceI
	pr service.PromoServiceI
}

func NewAdminRoutes(handler *gin.RouterGroup, us service.UserServiceI, ps service.PoolServiceI, pr service.PromoServiceI, auth *middleware.AdminAuth) {
	r := &adminRoutes{us: us, ps: ps, pr: pr}
	h := handler.Group("/admin")
	h.Use(auth.BasicAuth())
	{
		h.GET("/users", r.ListUsers)
		h.GET("/config", r.GetConfig)
		h.POST("/config", r.UpdateConfig)
		h.GET("/promos", r.ListPromos)
		h.POST("/promos", r.CreatePromo)
		h.POST("/promos/toggle", r.TogglePromo)
		h.POST("/distribute", r.TriggerDistribution)
	}
}

func (r *adminRoutes) ListUsers(c *gin.Context) {
	log := logger.Logger()

	dayKey := model.DayKey(time.Now().UTC())
	rows, err := r.us.ListUsersWithParticipation(c.Request.Context(), dayKey, 1000)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}

	users := make([]gin.H, len(rows))
	for i, row := range rows {
		users[i] = gin.H{
			"telegram_id":         row.TelegramID,
			"username":            row.Username,
			"points":              row.Points,
			"referral_code":       row.ReferralCode,
			"referrer_id":         row.ReferrerID,
			"today_participation": row.TodayParticipation,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"day_key": dayKey,
		"users":   users,
	})
}

func (r *adminRoutes) GetConfig(c *gin.Context) {
	log := logger.Logger()

	cfg, err := r.pr.GetAdminConfig(c.Request.Context())
	if err != nil {
		log.Error("failed to get admin config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get config"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals_enabled": cfg.ReferralsEnabled,
		"promo_enabled":     cfg.PromoEnabled,
	})
}

type UpdateConfigRequest struct {
	ReferralsEnabled bool `json:"referrals_enabled"`
	PromoEnabled     bool `json:"promo_enabled"`
}

func (r *adminRoutes) UpdateConfig(c *gin.Context) {
	log := logger.Logger()

	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.pr.UpdateAdminConfig(c.Request.Context(), &model.AdminConfig{
		ReferralsEnabled: req.ReferralsEnabled,
		PromoEnabled:     req.PromoEnabled,
	})
	if err != nil {
		log.Error("failed to update admin config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update config"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (r *adminRoutes) ListPromos(c *gin.Context) {
	log := logger.Logger()

	promos, err := r.pr.ListPromoCodes(c.Request.Context(), 200)
	if err != nil {
		log.Error("failed to list promos", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list promos"})
		return
	}

	out := make([]gin.H, len(promos))
	for i, promo := range promos {
		out[i] = gin.H{
			"code":       promo.Code,
			"points":     promo.Points,
			"max_uses":   promo.MaxUses,
			"uses":       promo.Uses,
			"active":     promo.Active,
			"created_at": promo.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"promos": out})
}

type CreatePromoRequest struct {
	Code    string `json:"code" binding:"required"`
	Points  int64  `json:"points" binding:"required"`
	MaxUses int    `json:"max_uses" binding:"required"`
}

func (r *adminRoutes) CreatePromo(c *gin.Context) {
	log := logger.Logger()

	var req CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := r.pr.CreatePromoCode(c.Request.Context(), req.Code, req.Points, req.MaxUses); err != nil {
		log.Error("failed to create promo", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create promo"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

type TogglePromoRequest struct {
	Code   string `json:"code" binding:"required"`
	Active bool   `json:"active"`
}

func (r *adminRoutes) TogglePromo(c *gin.Context) {
	log := logger.Logger()

	var req TogglePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := r.pr.SetPromoActive(c.Request.Context(), req.Code, req.Active); err != nil {
		log.Error("failed to toggle promo", zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "promo not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type TriggerDistributionRequest struct {
	DayKey string `json:"day_key" binding:"required"`
}

// TriggerDistribution is the manual override for operational re-runs. It is
// idempotent: an already distributed day reports so and changes nothing.
func (r *adminRoutes) TriggerDistribution(c *gin.Context) {
	log := logger.Logger()

	var req TriggerDistributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if _, err := time.Parse("2006-01-02", req.DayKey); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day_key"})
		return
	}

	dist, err := r.ps.Distribute(c.Request.Context(), req.DayKey)
	if err != nil {
		log.Error("manual distribution failed",
			zap.String("day_key", req.DayKey),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "distribution failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"day_key":             dist.DayKey,
		"pool_points":         dist.PoolPoints,
		"total_tickets":       dist.TotalTickets,
		"participants":        len(dist.Payouts),
		"already_distributed": dist.AlreadyDistributed,
	})
}
