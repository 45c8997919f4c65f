package health

import (
	"time"

	"github.com/ethanbaker/api/pkg/api_types"
	"github.com/gin-gonic/gin"
)

var startedAt = time.Now().UTC()

// Return status of the call service
func getStatus(c *gin.Context) {
	res := api_types.NewSuccessResponse("OK", gin.H{
		"service":        "callvia",
		"uptime_seconds": int(time.Since(startedAt).Seconds()),
	})
	c.JSON(res.AsGinResponse())
}
