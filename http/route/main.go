package routes

import (
	"github.com/appleplayground/media-service/http/controller"
	middlewares "github.com/appleplayground/media-service/http/middleware"
	"github.com/gin-gonic/gin"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	r.GET("/healthz", ctrl.Healthz)

	apiRoutes := r.Group("/api/v1/media")
	{
		apiRoutes.Use(middles.AuthMiddleware)

		imageRoutes := apiRoutes.Group("/images")
		{
			imageRoutes.POST("/", ctrl.UploadImage)
			imageRoutes.GET("/:id", ctrl.GetImage)
			imageRoutes.DELETE("/:id", ctrl.DeleteImage)
			imageRoutes.GET("/:id/download-url", ctrl.CreateDownloadURL)

			// Client-direct upload flow
			imageRoutes.POST("/upload-url", ctrl.CreateUploadURL)
			imageRoutes.POST("/:id/complete", ctrl.CompleteUpload)
		}

		userRoutes := apiRoutes.Group("/users")
		{
			userRoutes.GET("/:id/images", ctrl.ListUserImages)
			userRoutes.GET("/:id/followers", ctrl.ListFollowers)
			userRoutes.GET("/:id/following", ctrl.ListFollowing)
		}

		followRoutes := apiRoutes.Group("/follows")
		{
			followRoutes.POST("/:id", ctrl.FollowUser)
			followRoutes.DELETE("/:id", ctrl.UnfollowUser)
			followRoutes.GET("/:id/status", ctrl.FollowStatus)
		}

		postRoutes := apiRoutes.Group("/posts")
		{
			postRoutes.POST("/:id/like", ctrl.LikePost)
			postRoutes.DELETE("/:id/like", ctrl.UnlikePost)
			postRoutes.POST("/:id/view", ctrl.ViewPost)
		}
	}
	return r
}
