package api

import (
	"github.com/gin-gonic/gin"

	"github.com/rish560/bytejoule.ai-dashboard/api/handler"
	"github.com/rish560/bytejoule.ai-dashboard/api/middleware"
	"github.com/rish560/bytejoule.ai-dashboard/api/model"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
func SetupRouter(
	analysisHandler *handler.AnalysisHandler,
	schemaHandler *handler.SchemaHandler,
	taskHandler *handler.TaskHandler,
) *gin.Engine {
	// 注册自定义请求参数校验器
	model.RegisterValidators()

	// 创建默认的Gin路由引擎
	router := gin.Default()

	// 应用全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())

	// 在调试模式下记录请求体和响应体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	// 创建API分组
	api := router.Group("/api")
	{
		// 文档分析API
		docGroup := api.Group("/documents")
		{
			// 上传文档并启动分析 - POST /api/documents
			docGroup.POST("", analysisHandler.UploadDocument)

			// 获取分析记录列表 - GET /api/documents
			docGroup.GET("", analysisHandler.ListAnalyses)

			// 获取分析记录详情 - GET /api/documents/:id
			docGroup.GET("/:id", analysisHandler.GetAnalysis)

			// 获取分析处理状态 - GET /api/documents/:id/status
			docGroup.GET("/:id/status", analysisHandler.GetAnalysisStatus)

			// 获取字段提取结果 - GET /api/documents/:id/result
			docGroup.GET("/:id/result", analysisHandler.GetResult)

			// 获取结构模式 - GET /api/documents/:id/schema
			docGroup.GET("/:id/schema", analysisHandler.GetSchema)

			// 导出提取结果 - GET /api/documents/:id/export
			docGroup.GET("/:id/export", analysisHandler.ExportResult)

			// 更新标签 - PUT /api/documents/:id/tags
			docGroup.PUT("/:id/tags", analysisHandler.UpdateTags)

			// 删除分析记录 - DELETE /api/documents/:id
			docGroup.DELETE("/:id", analysisHandler.DeleteAnalysis)

			// 获取分析关联任务 - GET /api/documents/:id/tasks
			if taskHandler != nil {
				docGroup.GET("/:id/tasks", taskHandler.GetAnalysisTasks)
			}
		}

		// 独立模式推断API
		api.POST("/schema", schemaHandler.InferSchema)

		// 任务API（仅在启用异步处理时注册）
		if taskHandler != nil {
			taskGroup := api.Group("/tasks")
			{
				// 任务回调 - POST /api/tasks/callback
				taskGroup.POST("/callback", taskHandler.HandleCallback)

				// 获取任务状态 - GET /api/tasks/:id
				taskGroup.GET("/:id", taskHandler.GetTaskStatus)
			}
		}

		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors 跨域资源共享中间件
// 如果需要支持跨域请求，可以启用此中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
