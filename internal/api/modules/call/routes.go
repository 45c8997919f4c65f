package call

import (
	"fmt"
	"log"

	"github.com/callvia/callvia/internal/orchestrator"
	"github.com/callvia/callvia/pkg/utils"
	"github.com/ethanbaker/api/pkg/api_key"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the routes for the call module. The orchestrator
// is injected rather than held as module state.
func RegisterRoutes(g *gin.RouterGroup, cfg *utils.Config, orch *orchestrator.Orchestrator) {
	// Make api key validator
	validator, err := makeApiKeyValidator(cfg)
	if err != nil {
		log.Fatalf("failed to create API key validator: %v", err)
	}

	controller := &Controller{orch: orch}

	// Create base group for call routes
	group := g.Group("/calls")
	group.Handlers = append(group.Handlers, api_key.APIKeyHeaderHandler(validator))

	// Call session routes
	group.POST("/sessions", controller.StartCall)           // Start a new call session
	group.POST("/sessions/:uuid/turn", controller.PostTurn) // Submit a caller turn
	group.POST("/sessions/:uuid/end", controller.EndCall)   // End a call session
	group.GET("/sessions", controller.ListActiveCalls)      // Snapshot of active sessions
}

// makeApiKeyValidator checks if the provided API key is valid
func makeApiKeyValidator(cfg *utils.Config) (func(key string) bool, error) {
	// Get api key from config
	apiKey := cfg.Get("API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("API_KEY not set in environment")
	}

	return func(key string) bool {
		return apiKey == key
	}, nil
}
