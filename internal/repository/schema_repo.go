package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/rish560/bytejoule.ai-dashboard/internal/database"
	"github.com/rish560/bytejoule.ai-dashboard/internal/models"
)

// schemaRepository 模式记录仓储实现
type schemaRepository struct {
	db *gorm.DB // 数据库连接
}

// NewSchemaRepository 创建模式记录仓储实例
func NewSchemaRepository() SchemaRepository {
	return &schemaRepository{db: database.MustDB()}
}

// NewSchemaRepositoryWithDB 使用指定的数据库连接创建模式记录仓储实例
func NewSchemaRepositoryWithDB(db *gorm.DB) SchemaRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &schemaRepository{db: db}
}

// Create 创建模式记录
func (r *schemaRepository) Create(record *models.SchemaRecord) error {
	if record.ID == "" {
		return errors.New("schema record ID cannot be empty")
	}

	return r.db.Create(record).Error
}

// GetByID 根据ID获取模式记录
func (r *schemaRepository) GetByID(id string) (*models.SchemaRecord, error) {
	var record models.SchemaRecord
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrSchemaNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetByAnalysisID 获取分析记录关联的模式
// 同一条分析记录存在多条模式时返回最新的一条
func (r *schemaRepository) GetByAnalysisID(analysisID string) (*models.SchemaRecord, error) {
	var record models.SchemaRecord
	err := r.db.Where("analysis_id = ?", analysisID).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrSchemaNotFound
		}
		return nil, err
	}
	return &record, nil
}

// List 列出模式记录
func (r *schemaRepository) List(offset, limit int) ([]*models.SchemaRecord, int64, error) {
	var records []*models.SchemaRecord
	var total int64

	query := r.db.Model(&models.SchemaRecord{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// Delete 删除模式记录
func (r *schemaRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.SchemaRecord{}).Error
}
