package router

import (
	"github.com/blues/fss/internal/config"
	"github.com/blues/fss/internal/ethereum"
	"github.com/blues/fss/internal/handler"
	"github.com/blues/fss/internal/ledger"
	"github.com/blues/fss/internal/settlement"
	"github.com/blues/fss/internal/signing"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, ethClient *ethereum.Client, session *ledger.Session, signer signing.Signer, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "fairsharing-service",
		})
	})

	ledgerStore := ledger.New(db)
	settlementSvc := settlement.NewService(ledgerStore, settlement.NewContractSettler(ethClient))

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 会话相关路由
		sessionHandler := handler.NewSessionHandler(session)
		sessions := v1.Group("/session")
		{
			sessions.POST("", sessionHandler.OpenSession)
			sessions.GET("", sessionHandler.GetSession)
			sessions.DELETE("", sessionHandler.CloseSession)
		}

		// 项目相关路由
		projectHandler := handler.NewProjectHandler(db)
		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
		}

		// 贡献记录相关路由
		recordHandler := handler.NewRecordHandler(ledgerStore, session, settlementSvc, signer)
		records := v1.Group("/records")
		{
			records.GET("", recordHandler.ListRecords)
			records.POST("", recordHandler.CreateRecord)
			records.GET("/:id/digest", recordHandler.GetDigest)
			records.POST("/:id/votes", recordHandler.AppendVote)
			records.POST("/:id/votes/sign", recordHandler.SignVote)
			records.POST("/:id/claim", recordHandler.Claim)
		}

		// 注资路由
		depositHandler := handler.NewDepositHandler(ethClient)
		v1.POST("/deposits", depositHandler.Deposit)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
