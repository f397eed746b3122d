package router

import "github.com/gin-gonic/gin"

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	{
		// Public registration
		users.POST("/register", r.userHandler.Register)

		// Protected profile routes
		protected := users.Group("")
		protected.Use(r.authMw.RequireAuth())
		{
			protected.GET("/me", r.userHandler.CurrentUser)
			protected.PATCH("/me", r.userHandler.UpdateAccount)
			protected.PATCH("/me/avatar", r.userHandler.UpdateAvatar)
			protected.PATCH("/me/cover-image", r.userHandler.UpdateCoverImage)
		}
	}
}
