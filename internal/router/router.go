package router

import (
	"Blinko_Note/internal/handler"
	"Blinko_Note/internal/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(userHandler handler.UserHandler, noteHandler handler.NoteHandler, commentHandler handler.CommentHandler) *gin.Engine {
	r := gin.Default()
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pang",
		})
	})
	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/notes", noteHandler.GetFeed)
		apiV1.GET("/notes/:note_id", noteHandler.GetNoteByID)
		apiV1.GET("/notes/:note_id/comments", commentHandler.GetComments)

		// 发评论单独走可选认证：游客放行，登录用户带上身份
		apiV1.POST("/notes/:note_id/comments", middleware.OptionalAuthMiddleware(), commentHandler.CreateCommentForNote)

		userGroup := apiV1.Group("/users")
		{
			userGroup.POST("/register", userHandler.Register)
			userGroup.POST("/login", userHandler.Login)
		}

		authorized := apiV1.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			authorized.GET("/profile", userHandler.GetProfile)
			authorized.POST("/notes", noteHandler.CreateNote)

			// 改/删评论只对登录用户开放，游客评论从这条路上是永远动不了的
			authorized.PUT("/comments/:comment_id", commentHandler.UpdateComment)
			authorized.DELETE("/comments/:comment_id", commentHandler.DeleteComment)
		}
	}

	return r
}
