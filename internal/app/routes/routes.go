package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/miu/unidesk/internal/app/controllers"
	"github.com/miu/unidesk/internal/middleware"
	"github.com/miu/unidesk/internal/pkg/auth"
	"github.com/miu/unidesk/internal/pkg/websocket"
)

// Controllers groups everything SetupRouter mounts
type Controllers struct {
	Election *controllers.ElectionController
	Research *controllers.ResearchController
	Admin    *controllers.AdminController
	AdminAPI *controllers.AdminAPIController
	System   *controllers.SystemController
	WS       *websocket.Handler
	Metrics  http.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	// --- Election portal ---
	router.GET("/", c.Election.Home)
	router.GET("/register/", c.Election.RegisterForm)
	router.POST("/register/", c.Election.Register)
	router.GET("/login/", c.Election.LoginForm)
	router.POST("/login/", c.Election.Login)
	router.GET("/success/", c.Election.Success)

	voter := router.Group("")
	voter.Use(authMiddleware.LoginRequired(auth.KindVoter, "/login/"))
	{
		voter.GET("/logout/", c.Election.Logout)
		voter.GET("/vote/", c.Election.Ballot)
		voter.POST("/vote/", c.Election.Vote)
	}

	// --- Research portal ---
	research := router.Group("/research")
	{
		research.GET("/", c.Research.Entry)
		research.POST("/", c.Research.Login)
		research.GET("/logout/", c.Research.Logout)

		student := research.Group("")
		student.Use(authMiddleware.LoginRequired(auth.KindStudent, "/research/"))
		{
			student.GET("/research-guide/", c.Research.Guide)
			student.POST("/topics/", c.Research.ProposeTopic)
			student.POST("/files/", c.Research.UploadFile)
		}

		staff := research.Group("")
		staff.Use(authMiddleware.StaffRequired("/admin/login/"))
		{
			staff.GET("/students/", c.Research.Students)
			staff.GET("/view-research-data/", c.Research.ResearchData)
			staff.GET("/students_without_topics/", c.Research.StudentsWithoutTopics)
		}
	}

	// --- Admin site ---
	admin := router.Group("/admin")
	{
		admin.GET("/login/", c.Admin.LoginForm)
		admin.POST("/login/", c.Admin.Login)
		admin.GET("/logout/", c.Admin.Logout)

		// Staff-only JSON API
		api := admin.Group("/api")
		api.Use(authMiddleware.StaffAPI())
		{
			for _, res := range c.AdminAPI.Resources() {
				group := api.Group("/" + res.Name)
				if res.List != nil {
					group.GET("", res.List)
				}
				if res.Create != nil {
					group.POST("", res.Create)
				}
				if res.Get != nil {
					group.GET("/:id", res.Get)
				}
				if res.Update != nil {
					group.PUT("/:id", res.Update)
				}
				if res.Delete != nil {
					group.DELETE("/:id", res.Delete)
				}
			}
			api.POST("/students/:id/profile-image", c.AdminAPI.UploadStudentImage)
			api.POST("/candidates/:id/image", c.AdminAPI.UploadCandidateImage)
		}

		pages := admin.Group("")
		pages.Use(authMiddleware.StaffRequired("/admin/login/"))
		{
			pages.GET("/", c.Admin.Index)
			pages.GET("/:resource/", c.Admin.List)
		}
	}

	// --- Realtime and operations ---
	router.GET("/ws/notifications", c.WS.HandleConnection)
	router.GET("/healthz", c.System.Health)
	if c.Metrics != nil {
		router.GET("/metrics", gin.WrapH(c.Metrics))
	}
}
