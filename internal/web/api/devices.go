package api

import (
	"errors"
	"strconv"

	"homelink/internal/api"
	"homelink/internal/device"
	"homelink/internal/web/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterDeviceRoutes exposes watched-device snapshots, the watch
// lifecycle, and device control
func RegisterDeviceRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, manager *device.Manager, hub *api.Client) {
	devices := r.Group("/devices")
	devices.Use(middleware.RequireToken())
	{
		// Paginated passthrough of the hub's device list, for pickers
		devices.GET("/", func(c *gin.Context) {
			page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
			if err != nil || page < 1 {
				c.JSON(400, gin.H{"error": "Invalid page"})
				return
			}
			listing, err := hub.ListDevices(c.Request.Context(), page)
			if err != nil {
				c.JSON(502, gin.H{"error": "Failed to fetch devices"})
				return
			}
			c.JSON(200, listing)
		})

		// Available-actions passthrough, for the trigger and action pickers
		devices.GET("/:id/actions", func(c *gin.Context) {
			actions, err := hub.GetDeviceActions(c.Request.Context(), c.Param("id"))
			if err != nil {
				c.JSON(502, gin.H{"error": "Failed to fetch device actions"})
				return
			}
			c.JSON(200, actions)
		})

		devices.POST("/:id/watch", func(c *gin.Context) {
			ctl, err := manager.Open(c.Request.Context(), c.Param("id"))
			if err != nil {
				c.JSON(502, gin.H{"error": "Failed to load device"})
				return
			}
			dev, _ := ctl.Snapshot()
			c.JSON(200, dev)
		})

		devices.DELETE("/:id/watch", func(c *gin.Context) {
			manager.Close(c.Param("id"))
			c.Status(204)
		})

		devices.GET("/:id", func(c *gin.Context) {
			ctl, ok := manager.Get(c.Param("id"))
			if !ok {
				// Not watched; fall back to the last cached snapshot if any
				if dev, hit := manager.Cached(c.Request.Context(), c.Param("id")); hit {
					c.JSON(200, gin.H{"device": dev, "stale": true})
					return
				}
				c.JSON(404, gin.H{"error": "Device not watched"})
				return
			}
			dev, loaded := ctl.Snapshot()
			if !loaded {
				c.JSON(404, gin.H{"error": "Device not loaded"})
				return
			}
			c.JSON(200, dev)
		})

		devices.POST("/:id/control", func(c *gin.Context) {
			var req struct {
				Key   string      `json:"key"`
				Value interface{} `json:"value"`
			}
			if err := c.ShouldBindJSON(&req); err != nil || req.Key == "" {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}

			ctl, ok := manager.Get(c.Param("id"))
			if !ok {
				c.JSON(404, gin.H{"error": "Device not watched"})
				return
			}

			next, err := ctl.ControlProperty(c.Request.Context(), req.Key, req.Value)
			switch {
			case errors.Is(err, device.ErrOffline):
				c.JSON(409, gin.H{"error": "Device is not online"})
			case errors.Is(err, device.ErrNotLoaded), errors.Is(err, device.ErrClosed):
				c.JSON(409, gin.H{"error": "Device not ready"})
			case err != nil:
				c.JSON(502, gin.H{"error": "Command failed"})
			default:
				c.JSON(200, gin.H{"key": req.Key, "value": next})
			}
		})
	}
}
