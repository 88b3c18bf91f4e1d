package router

import (
	"StudyRoom/internal/handler"
	"StudyRoom/internal/middleware"
	"StudyRoom/internal/pkg"
	"StudyRoom/internal/repository/mysql"
	"StudyRoom/internal/repository/redis"
	"StudyRoom/internal/service"

	"github.com/gin-gonic/gin"
)

func InitRouter(producer *pkg.KafkaProducer) *gin.Engine {
	r := gin.Default()

	roomRepo := &mysql.RoomRepository{DB: mysql.DB}
	memberRepo := &mysql.RoomMemberRepository{DB: mysql.DB}
	userRepo := &mysql.UserRepository{DB: mysql.DB}
	inviteRepo := &mysql.InviteRepository{DB: mysql.DB}
	presenceRepo := redis.NewPresenceRepository()
	inviteCache := redis.NewInviteCache()

	roomSvc := service.NewRoomService(roomRepo, memberRepo, userRepo, presenceRepo, producer)
	inviteSvc := service.NewInviteService(inviteRepo, inviteCache, roomRepo, userRepo)
	userSvc := service.NewUserService(userRepo)

	user := handler.NewUserHandler(userSvc)
	room := handler.NewRoomHandler(roomSvc)
	invite := handler.NewInviteHandler(inviteSvc, roomSvc)

	// 用户相关接口
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", user.Register)
		userGroup.POST("/login", user.Login)
	}

	// token相关接口
	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", user.TokenRefresh)
	}

	// 登录态接口
	authGroup := r.Group("/api/auth")
	authGroup.Use(middleware.AuthMiddleware())
	{
		authGroup.POST("/logout", user.Logout)
	}

	// 房间相关接口
	roomGroup := r.Group("/api/room")
	roomGroup.Use(middleware.AuthMiddleware())
	{
		roomGroup.POST("", room.Create)
		roomGroup.GET("/list", room.List)
		roomGroup.GET("/popular", room.Popular)
		roomGroup.GET("/:id", room.Detail)
		roomGroup.GET("/:id/members", room.Members)
		roomGroup.GET("/:id/role", room.Role)
		roomGroup.POST("/:id/join", room.Join)
		roomGroup.POST("/:id/leave", room.Leave)
		roomGroup.POST("/:id/role", room.ChangeRole)
		roomGroup.POST("/:id/kick", room.Kick)
		roomGroup.POST("/:id/terminate", room.Terminate)
		roomGroup.POST("/:id/invite", invite.Create)
	}

	// 邀请码相关接口
	inviteGroup := r.Group("/api/invite")
	inviteGroup.Use(middleware.AuthMiddleware())
	{
		inviteGroup.GET("/:code", invite.Resolve)
		inviteGroup.POST("/join", invite.Join)
	}

	return r
}
