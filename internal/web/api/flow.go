package api

import (
	"errors"
	"strconv"

	"homelink/internal/composition"
	"homelink/internal/models"
	"homelink/internal/rules"
	"homelink/internal/web/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterFlowRoutes exposes the composition flow: each picker/summary step
// of the original screens becomes an endpoint over the shared session
func RegisterFlowRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, assembler *rules.Assembler) {
	session := assembler.Session()

	flows := r.Group("/flow")
	flows.Use(middleware.RequireToken())
	{
		flows.POST("/", func(c *gin.Context) {
			var req struct {
				Kind   string `json:"kind"`
				EditID string `json:"editId"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}

			var err error
			switch composition.Kind(req.Kind) {
			case composition.KindScenario:
				if req.EditID != "" {
					_, err = assembler.EditScenario(c.Request.Context(), req.EditID)
				} else {
					err = assembler.BeginScenario()
				}
			case composition.KindScene:
				if req.EditID != "" {
					_, err = assembler.EditScene(c.Request.Context(), req.EditID)
				} else {
					err = assembler.BeginScene()
				}
			default:
				c.JSON(400, gin.H{"error": "Unknown flow kind"})
				return
			}

			switch {
			case errors.Is(err, composition.ErrFlowActive):
				c.JSON(409, gin.H{"error": "Another flow is already active"})
			case err != nil:
				c.JSON(502, gin.H{"error": "Failed to start flow"})
			default:
				c.JSON(201, flowState(session))
			}
		})

		flows.GET("/", func(c *gin.Context) {
			c.JSON(200, flowState(session))
		})

		flows.POST("/triggers", func(c *gin.Context) {
			if kind, active := session.Active(); !active || kind != composition.KindScenario {
				c.JSON(409, gin.H{"error": "No scenario flow active"})
				return
			}
			var trigger models.Trigger
			if err := c.ShouldBindJSON(&trigger); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			if err := session.Triggers.Add(trigger); err != nil {
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
			c.JSON(201, flowState(session))
		})

		flows.DELETE("/triggers/:index", func(c *gin.Context) {
			index, err := strconv.Atoi(c.Param("index"))
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid index"})
				return
			}
			if err := session.Triggers.RemoveAt(index); err != nil {
				c.JSON(404, gin.H{"error": "No trigger at index"})
				return
			}
			c.JSON(200, flowState(session))
		})

		flows.POST("/actions", func(c *gin.Context) {
			if _, active := session.Active(); !active {
				c.JSON(409, gin.H{"error": "No flow active"})
				return
			}
			var action models.Action
			if err := c.ShouldBindJSON(&action); err != nil || action.ID == "" {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			session.Actions.Add(action)
			c.JSON(201, flowState(session))
		})

		flows.DELETE("/actions/:id", func(c *gin.Context) {
			session.Actions.Remove(c.Param("id"))
			c.JSON(200, flowState(session))
		})

		flows.POST("/commit", func(c *gin.Context) {
			var meta struct {
				Name         string `json:"name"`
				ExecutedOnce bool   `json:"executedOnce"`
				IsEnabled    bool   `json:"isEnabled"`
			}
			if err := c.ShouldBindJSON(&meta); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}

			id, err := assembler.Commit(c.Request.Context(), rules.Metadata{
				Name:         meta.Name,
				ExecutedOnce: meta.ExecutedOnce,
				IsEnabled:    meta.IsEnabled,
			})
			switch {
			case errors.Is(err, rules.ErrNoFlow):
				c.JSON(409, gin.H{"error": "No flow active"})
			case errors.Is(err, rules.ErrNameRequired):
				c.JSON(400, gin.H{"error": "Name is required"})
			case err != nil:
				// Stores stay populated; the caller may retry
				c.JSON(502, gin.H{"error": "Failed to save"})
			default:
				c.JSON(201, gin.H{"id": id})
			}
		})

		flows.POST("/discard", func(c *gin.Context) {
			assembler.Discard()
			c.Status(204)
		})
	}
}

func flowState(session *composition.Session) gin.H {
	kind, active := session.Active()
	return gin.H{
		"active":   active,
		"kind":     kind,
		"editId":   session.EditID(),
		"triggers": session.Triggers.List(),
		"actions":  session.Actions.List(),
	}
}
