package controller

import (
	"github.com/appleplayground/media-service/utils"
	"github.com/gin-gonic/gin"
)

// Healthz reports database reachability and object store status. It runs
// unauthenticated so load balancers can poll it.
func (ctrl *Controller) Healthz(c *gin.Context) {
	ctx := c.Request.Context()

	checks := gin.H{"database": "ok", "storage": "ok"}
	healthy := true

	if err := ctrl.Infra.Postgres.Ping(); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}

	info, err := ctrl.Infra.Minio.StorageInfo(ctx)
	if err != nil {
		checks["storage"] = err.Error()
		healthy = false
	} else {
		checks["storage_servers"] = len(info.Servers)
	}

	if !healthy {
		utils.JSON500(c, "unhealthy")
		return
	}

	utils.JSON200(c, checks)
}
