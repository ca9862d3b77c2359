package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gametrack_v1_202601/internal/controller"
	"gametrack_v1_202601/internal/middleware"
	"gametrack_v1_202601/internal/model"
)

// Controllers 控制器集合
type Controllers struct {
	Auth     *controller.AuthController
	Account  *controller.AccountController
	Template *controller.TemplateController
	Progress *controller.ProgressController
}

// SetupRouter 注册所有路由
func SetupRouter(ctls *Controllers, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(logger))

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// auth 鉴权组
		auth := api.Group("/auth")
		{
			auth.POST("/register", ctls.Auth.Register)
			auth.POST("/login", ctls.Auth.Login)
			auth.POST("/refresh", ctls.Auth.RefreshToken)

			authed := auth.Group("", middleware.JWTAuth())
			{
				authed.GET("/profile", ctls.Auth.GetProfile)
				authed.PUT("/password", ctls.Auth.ChangePassword)
			}
		}

		// accounts 共享账号组，全部需要登录
		accounts := api.Group("/accounts", middleware.JWTAuth())
		{
			accounts.GET("", ctls.Account.GetAccountList)
			accounts.POST("", ctls.Account.CreateAccount)
			accounts.GET("/:name", ctls.Account.GetAccountDetail)
			accounts.PUT("/:name", ctls.Account.UpdateAccount)
			accounts.DELETE("/:name", ctls.Account.DeleteAccount)

			// 成员管理
			accounts.GET("/:name/users", ctls.Account.GetAccountUsers)
			accounts.POST("/:name/users", ctls.Account.AddUser)
			accounts.DELETE("/:name/users/:userId", ctls.Account.RemoveUser)
			accounts.PUT("/:name/users/:userId/permissions", ctls.Account.UpdateUserPermissions)

			// 权限自省
			accounts.GET("/:name/permissions", ctls.Account.GetMyPermissions)

			// 周常进度
			accounts.GET("/:name/progress", ctls.Progress.GetProgress)
			accounts.POST("/:name/progress", ctls.Progress.RecordProgress)
		}

		// templates 进度模板组，读公开给登录用户，写仅管理员
		templates := api.Group("/templates", middleware.JWTAuth())
		{
			templates.GET("", ctls.Template.GetTemplateList)

			admin := templates.Group("", middleware.RequireRole(model.UserRoleAdmin))
			{
				admin.POST("", ctls.Template.CreateTemplate)
				admin.PUT("/:id", ctls.Template.UpdateTemplate)
				admin.DELETE("/:id", ctls.Template.DeleteTemplate)
			}
		}
	}

	return r
}
