package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-transcoder/internal/api/handlers/asset"
	"github.com/aliskhannn/image-transcoder/internal/api/handlers/transcode"
)

// Setup builds the engine with CORS for the upload forms' origins.
func Setup(th *transcode.Handler, ah *asset.Handler, allowedOrigins []string) *ginext.Engine {
	r := ginext.New()

	r.Use(cors.New(corsConfig(allowedOrigins)))
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	api := r.Group("/api")

	api.POST("/transcode", th.Transcode) // synchronous preview
	api.GET("/profiles", th.Profiles)    // configured constraint profiles

	api.POST("/assets", ah.Upload)          // store original, queue transcodes
	api.GET("/assets/:id", ah.Get)          // transcoded bytes
	api.GET("/assets/:id/meta", ah.GetMeta) // asset record
	api.DELETE("/assets/:id", ah.Delete)    // delete asset

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cfg
}
