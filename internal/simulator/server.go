package simulator

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"homelink/auth"
	"homelink/internal/db"
	"homelink/internal/models"
)

// Server is the simulated hub: the REST API the controller talks to plus the
// WebSocket sync endpoint.
type Server struct {
	router *gin.Engine
}

// NewServer wires the hub routes. authModule may be nil, which disables
// authentication for local development.
func NewServer(database *db.DB, authModule *auth.AuthModule, queue *Queue, hub *WSHub, broadcast Broadcaster) *Server {
	router := gin.Default()

	router.GET("/sync", hub.Handle)

	api := router.Group("/api")
	registerAuthRoutes(api, authModule)

	protected := api.Group("")
	protected.Use(requireAuth(authModule))
	registerDeviceRoutes(protected, database, queue, broadcast)
	registerScenarioRoutes(protected, database)
	registerSceneRoutes(protected, database)

	return &Server{router: router}
}

// Router exposes the gin engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the hub on addr
func (s *Server) Start(addr string) {
	s.router.Run(addr)
}

// requireAuth checks the Bearer token on every request. A nil auth module
// turns the check off.
func requireAuth(authModule *auth.AuthModule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authModule == nil {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			c.Abort()
			return
		}
		userID, err := authModule.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

func registerAuthRoutes(r *gin.RouterGroup, authModule *auth.AuthModule) {
	r.POST("/auth/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if authModule == nil {
			c.JSON(http.StatusOK, gin.H{"token": ""})
			return
		}
		token, err := authModule.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	r.POST("/auth/register", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Email    string `json:"email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if authModule == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication disabled"})
			return
		}
		token, err := authModule.Register(c.Request.Context(), req.Username, req.Password, req.Email)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"token": token})
	})
}

func registerDeviceRoutes(r *gin.RouterGroup, database *db.DB, queue *Queue, broadcast Broadcaster) {
	r.GET("/devices", func(c *gin.Context) {
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}
		devices, err := database.ListDevices(c.Request.Context(), page)
		if err != nil {
			log.Printf("SIMULATOR: failed to list devices: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list devices"})
			return
		}
		c.JSON(http.StatusOK, devices)
	})

	r.GET("/devices/:id", func(c *gin.Context) {
		dev, err := database.GetDeviceByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
			return
		}
		c.JSON(http.StatusOK, dev)
	})

	r.GET("/devices/:id/actions", func(c *gin.Context) {
		actions, err := database.GetDeviceActionTemplates(c.Request.Context(), c.Param("id"))
		if err != nil {
			log.Printf("SIMULATOR: failed to list device actions: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list actions"})
			return
		}
		c.JSON(http.StatusOK, actions)
	})

	// Dev-only toggle: flip a device's liveness and push the heartbeat right
	// away instead of waiting for the next scheduled round
	r.PUT("/devices/:id/active", func(c *gin.Context) {
		var req struct {
			Active *bool `json:"active"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if _, err := database.GetDeviceByID(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
			return
		}
		if err := database.SetDeviceActive(c.Request.Context(), c.Param("id"), *req.Active); err != nil {
			log.Printf("SIMULATOR: failed to set device liveness: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update device"})
			return
		}
		broadcast.PublishHeartbeat(c.Param("id"), *req.Active)
		c.Status(http.StatusNoContent)
	})

	r.POST("/devices/control", func(c *gin.Context) {
		var req models.ControlDeviceRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.DeviceID == "" || len(req.Command) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		dev, err := database.GetDeviceByID(c.Request.Context(), req.DeviceID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
			return
		}
		if !dev.IsActive {
			c.JSON(http.StatusConflict, gin.H{"error": "Device is not online"})
			return
		}
		if err := queue.EnqueueCommand(req.DeviceID, req.Command); err != nil {
			log.Printf("SIMULATOR: failed to enqueue command: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue command"})
			return
		}
		c.Status(http.StatusNoContent)
	})
}

func registerScenarioRoutes(r *gin.RouterGroup, database *db.DB) {
	r.POST("/scenarios", func(c *gin.Context) {
		var req models.CreateScenarioRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		id, err := database.InsertScenario(c.Request.Context(), req)
		if err != nil {
			log.Printf("SIMULATOR: failed to insert scenario: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create scenario"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	})

	r.PUT("/scenarios/:id", func(c *gin.Context) {
		var req models.CreateScenarioRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		err := database.UpdateScenario(c.Request.Context(), c.Param("id"), req)
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Scenario not found"})
			return
		}
		if err != nil {
			log.Printf("SIMULATOR: failed to update scenario: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update scenario"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.GET("/scenarios/:id", func(c *gin.Context) {
		scenario, err := database.GetScenarioByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Scenario not found"})
			return
		}
		c.JSON(http.StatusOK, scenario)
	})
}

func registerSceneRoutes(r *gin.RouterGroup, database *db.DB) {
	r.POST("/scenes", func(c *gin.Context) {
		var req models.CreateSceneRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		id, err := database.InsertScene(c.Request.Context(), req)
		if err != nil {
			log.Printf("SIMULATOR: failed to insert scene: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create scene"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	})

	r.PUT("/scenes/:id", func(c *gin.Context) {
		var req models.CreateSceneRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		err := database.UpdateScene(c.Request.Context(), c.Param("id"), req)
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Scene not found"})
			return
		}
		if err != nil {
			log.Printf("SIMULATOR: failed to update scene: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update scene"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.GET("/scenes/:id", func(c *gin.Context) {
		scene, err := database.GetSceneByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Scene not found"})
			return
		}
		c.JSON(http.StatusOK, scene)
	})
}
