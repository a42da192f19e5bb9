package api

import (
	"net/http"
	"time"

	"tonpoints/internal/model"
	"tonpoints/internal/service"
	"tonpoints/pkg/auth"
	"tonpoints/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type poolRoutes struct {
	ps service.PoolServiceI
	a  *auth.TelegramAuth
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const poolFeedInterval = 5 * time.Second

func NewPoolRoutes(handler *gin.RouterGroup, ps service.PoolServiceI, a *auth.TelegramAuth) {
	r := &poolRoutes{ps: ps, a: a}
	h := handler.Group("/pool")
	h.Use(a.TelegramAuthMiddleware())
	{
		h.GET("/today", r.GetTodayPool)
		h.GET("/:day_key", r.GetPoolDay)
	}

	// The live feed carries no mutation and is consumed by the webapp
	// widget, so it sits outside the auth group.
	handler.GET("/ws/pool", r.PoolFeed)
}

type PoolDayResponse struct {
	DayKey        string     `json:"day_key"`
	PoolPoints    int64      `json:"pool_points"`
	Distributed   bool       `json:"distributed"`
	DistributedAt *time.Time `json:"distributed_at,omitempty"`
}

func (r *poolRoutes) GetTodayPool(c *gin.Context) {
	r.respondPoolDay(c, model.DayKey(time.Now().UTC()))
}

func (r *poolRoutes) GetPoolDay(c *gin.Context) {
	r.respondPoolDay(c, c.Param("day_key"))
}

func (r *poolRoutes) respondPoolDay(c *gin.Context, dayKey string) {
	log := logger.Logger()

	if _, err := time.Parse("2006-01-02", dayKey); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day_key"})
		return
	}

	day, err := r.ps.Status(c.Request.Context(), dayKey)
	if err != nil {
		log.Error("failed to get pool status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get pool status"})
		return
	}

	c.JSON(http.StatusOK, PoolDayResponse{
		DayKey:        day.DayKey,
		PoolPoints:    day.PoolPoints,
		Distributed:   day.Distributed,
		DistributedAt: day.DistributedAt,
	})
}

type poolFeedFrame struct {
	Type string          `json:"type"`
	Data PoolDayResponse `json:"data"`
}

// PoolFeed streams today's pool status over a WebSocket so the webapp can
// show the pot growing without polling.
func (r *poolRoutes) PoolFeed(c *gin.Context) {
	log := logger.Logger()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("failed to upgrade pool feed connection", zap.Error(err))
		return
	}
	defer conn.Close()

	// Drain (and detect close on) the read side.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(poolFeedInterval)
	defer ticker.Stop()

	for {
		dayKey := model.DayKey(time.Now().UTC())
		day, err := r.ps.Status(c.Request.Context(), dayKey)
		if err != nil {
			log.Error("pool feed status failed", zap.Error(err))
			return
		}

		frame, err := json.Marshal(poolFeedFrame{
			Type: "pool_status",
			Data: PoolDayResponse{
				DayKey:        day.DayKey,
				PoolPoints:    day.PoolPoints,
				Distributed:   day.Distributed,
				DistributedAt: day.DistributedAt,
			},
		})
		if err != nil {
			log.Error("pool feed marshal failed", zap.Error(err))
			return
		}

		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}

		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}
