package web

import (
	hubapi "homelink/internal/api"
	"homelink/internal/device"
	"homelink/internal/rules"
	"homelink/internal/web/api"
	"homelink/internal/web/middleware"

	"github.com/gin-gonic/gin"
)

// WebServer is the controller's local HTTP surface: device snapshots and
// control, plus the composition-flow steps.
type WebServer struct {
	router *gin.Engine
}

// NewWebServer builds the local API over the device manager and the rule
// assembler
func NewWebServer(manager *device.Manager, assembler *rules.Assembler, hub *hubapi.Client, token string) *WebServer {
	router := gin.Default()

	middlewareManager := middleware.NewMiddlewareManager(token)

	api.RegisterDeviceRoutes(router, middlewareManager, manager, hub)
	api.RegisterFlowRoutes(router, middlewareManager, assembler)

	return &WebServer{router: router}
}

// Router exposes the gin engine, mainly for tests
func (ws *WebServer) Router() *gin.Engine {
	return ws.router
}

// Start runs the server on addr
func (ws *WebServer) Start(addr string) {
	ws.router.Run(addr)
}
