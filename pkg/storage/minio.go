package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage 把上传的文档保存到MinIO对象存储
// 对象按上传日期组织，命名规则与本地存储保持一致
type MinioStorage struct {
	client     *minio.Client // MinIO客户端
	bucketName string        // 文档存储桶名称
}

// MinioConfig MinIO存储配置
type MinioConfig struct {
	Endpoint  string // MinIO服务端点
	AccessKey string // 访问密钥ID
	SecretKey string // 秘密访问密钥
	UseSSL    bool   // 是否使用SSL
	Bucket    string // 文档存储桶名称
}

// NewMinioStorage 创建MinIO存储实例，存储桶不存在时自动创建
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	// 存储桶不存在时创建
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %v", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %v", err)
		}
	}

	return &MinioStorage{
		client:     client,
		bucketName: cfg.Bucket,
	}, nil
}

// Save 把上传的文档写入MinIO
// 对象名为 年/月/日/<uuid><扩展名>，uuid即后续读取用的文档ID
func (s *MinioStorage) Save(reader io.Reader, filename string) (FileInfo, error) {
	id := uuid.New().String()
	ext := filepath.Ext(filename)

	now := time.Now()
	datePath := fmt.Sprintf("%04d/%02d/%02d", now.Year(), now.Month(), now.Day())
	objectName := fmt.Sprintf("%s/%s%s", datePath, id, ext)

	// 读入内存以获取大小后再上传
	// 待分析的文档受上传大小限制约束，不需要流式上传
	content, err := io.ReadAll(reader)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to read file content: %v", err)
	}

	contentReader := bytes.NewReader(content)
	size := int64(len(content))
	contentType := getMimeType(filename)

	_, err = s.client.PutObject(
		context.Background(),
		s.bucketName,
		objectName,
		contentReader,
		size,
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to upload file: %v", err)
	}

	// 返回文件信息
	return FileInfo{
		ID:       id,
		Name:     filename,
		Size:     size,
		MimeType: contentType,
		Path:     objectName,
	}, nil
}

// Get 按文档ID读取MinIO中的文件内容
func (s *MinioStorage) Get(id string) (io.ReadCloser, error) {
	// 对象名中含上传日期，只能通过遍历反查ID
	files, err := s.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %v", err)
	}

	var objectName string
	for _, file := range files {
		if file.ID == id {
			objectName = file.Path
			break
		}
	}

	if objectName == "" {
		return nil, fmt.Errorf("file with id %s not found", id)
	}

	obj, err := s.client.GetObject(
		context.Background(),
		s.bucketName,
		objectName,
		minio.GetObjectOptions{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %v", err)
	}

	return obj, nil
}

// Delete 删除指定文档ID对应的对象
func (s *MinioStorage) Delete(id string) error {
	files, err := s.List()
	if err != nil {
		return fmt.Errorf("failed to list files: %v", err)
	}

	var objectName string
	for _, file := range files {
		if file.ID == id {
			objectName = file.Path
			break
		}
	}

	if objectName == "" {
		return fmt.Errorf("file with id %s not found", id)
	}

	err = s.client.RemoveObject(
		context.Background(),
		s.bucketName,
		objectName,
		minio.RemoveObjectOptions{},
	)
	if err != nil {
		return fmt.Errorf("failed to delete object: %v", err)
	}

	return nil
}

// List 列出存储桶中的所有文档
func (s *MinioStorage) List() ([]FileInfo, error) {
	var files []FileInfo

	objectCh := s.client.ListObjects(
		context.Background(),
		s.bucketName,
		minio.ListObjectsOptions{Recursive: true},
	)

	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %v", object.Err)
		}

		// 对象基础名去掉扩展名即文档ID
		objectName := object.Key
		fileName := filepath.Base(objectName)
		id := strings.TrimSuffix(fileName, filepath.Ext(fileName))

		files = append(files, FileInfo{
			ID:       id,
			Name:     fileName,
			Size:     object.Size,
			MimeType: getMimeTypeFromPath(objectName),
			Path:     objectName,
		})
	}

	return files, nil
}

// Exists 检查指定文档ID是否存在
func (s *MinioStorage) Exists(id string) (bool, error) {
	files, err := s.List()
	if err != nil {
		return false, fmt.Errorf("failed to list files: %v", err)
	}

	for _, file := range files {
		if file.ID == id {
			return true, nil
		}
	}

	return false, nil
}

// getMimeTypeFromPath 从对象路径判断MIME类型
func getMimeTypeFromPath(path string) string {
	return getMimeType(path)
}
