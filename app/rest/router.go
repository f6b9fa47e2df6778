package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type router struct {
}

func NewRouter() *router {
	return &router{}
}

func (s *router) GetHandler(eh *EndpointHandler) http.Handler {
	r := gin.Default()

	r.NoRoute(func(ctx *gin.Context) { // check for 404
		ctx.JSON(http.StatusNotFound, gin.H{
			"message": "Page not found",
		})
	})

	r.GET("/health", eh.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/backup", eh.Backup)
		v1.GET("/backups", eh.ListBackups)
		v1.GET("/backup/:run_id", eh.BackupStatus)
		v1.DELETE("/backup/:run_id", eh.BackupDelete)
		v1.GET("/backup/:run_id/compare", eh.Compare)
		v1.POST("/backup/:run_id/restore", eh.Restore)
		v1.GET("/backup/:run_id/restores", eh.ListRestores)
		v1.POST("/backup/:run_id/export", eh.Export)
		v1.GET("/backup/:run_id/exports", eh.ListExports)
		v1.GET("/restore/:job_id", eh.RestoreStatus)
		v1.GET("/export/:name", eh.Download)
		v1.GET("/export/:name/s3", eh.S3PresignedURL)
	}

	return r
}
