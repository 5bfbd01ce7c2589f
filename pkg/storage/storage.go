package storage

import (
	"io"
)

// FileInfo 已保存文档的元数据
type FileInfo struct {
	ID       string // 文档唯一标识符，由存储实现生成
	Name     string // 上传时的原始文件名
	Size     int64  // 文件大小(字节)
	MimeType string // 按扩展名判断的MIME类型
	Path     string // 存储内部路径，分析流水线用它读取原始文件
}

// Storage 上传文档的存储接口
// 本地文件系统和MinIO各有一个实现，分析服务只依赖此接口
type Storage interface {
	// Save 保存上传的文档并返回元数据
	Save(reader io.Reader, filename string) (FileInfo, error)

	// Get 按文档ID读取文件内容
	Get(id string) (io.ReadCloser, error)

	// Delete 删除文档
	Delete(id string) error

	// List 列出已保存的所有文档
	List() ([]FileInfo, error)

	// Exists 检查文档是否存在
	Exists(id string) (bool, error)
}

// Factory 存储实现的工厂函数，按配置创建对应的存储后端
type Factory func(cfg interface{}) (Storage, error)
