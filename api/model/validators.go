package model

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
)

// RegisterValidators 注册自定义请求参数校验器
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// 分析状态枚举校验
	_ = v.RegisterValidation("analysisstatus", func(fl validator.FieldLevel) bool {
		switch models.AnalysisStatus(fl.Field().String()) {
		case models.StatusUploaded, models.StatusProcessing, models.StatusCompleted, models.StatusFailed:
			return true
		default:
			return false
		}
	})

	// 导出格式枚举校验
	_ = v.RegisterValidation("exportformat", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "json", "csv":
			return true
		default:
			return false
		}
	})
}
