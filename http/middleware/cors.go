package middlewares

import (
	"strings"
	"time"

	"github.com/appleplayground/media-service/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func CORSMiddleware(cfg *config.EnvConfig) gin.HandlerFunc {
	allowed := strings.Split(cfg.CORS.AllowDomains, ",")
	origins := make([]string, 0, len(allowed))
	for _, domain := range allowed {
		domain = strings.TrimSpace(domain)
		if domain == "" {
			continue
		}
		if !strings.HasPrefix(domain, "http") {
			domain = "https://" + domain
		}
		origins = append(origins, domain)
	}
	if len(origins) == 0 {
		origins = []string{"https://" + cfg.CORS.GlobalDomain}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
