package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/firesales-next/internal/config"
)

// attachmentNamePattern 附件与导入行的对应约定：conv{行号}_attach{序号}.扩展名
var attachmentNamePattern = regexp.MustCompile(`^conv(\d+)_attach(\d+)\.[A-Za-z0-9]+$`)

// UploadService 附件上传服务
type UploadService struct {
	cfg *config.Config
}

// NewUploadService 创建附件上传服务实例
func NewUploadService(cfg *config.Config) *UploadService {
	return &UploadService{cfg: cfg}
}

// SaveAttachment 保存转化凭证附件，返回可供前端拼接的相对路径
func (s *UploadService) SaveAttachment(file *multipart.FileHeader) (string, error) {
	if file.Size > s.cfg.Upload.MaxSize {
		return "", fmt.Errorf("文件大小超过限制（最大 %d MB）", s.cfg.Upload.MaxSize/1024/1024)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(s.cfg.Upload.AllowedExtensions) > 0 {
		if ext == "" || !isAllowedExtension(ext, s.cfg.Upload.AllowedExtensions) {
			return "", fmt.Errorf("文件扩展名不被允许: %s", ext)
		}
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	now := time.Now()
	year := now.Format("2006")
	month := now.Format("01")
	savePath := filepath.Join("uploads", "attachments", year, month, filename)

	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return "", err
	}

	dst, err := os.Create(savePath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return fmt.Sprintf("/uploads/attachments/%s/%s/%s", year, month, filename), nil
}

// SaveReportFile 落盘待异步导入的 CSV 报表，返回供 worker 读取的文件路径
func (s *UploadService) SaveReportFile(file *multipart.FileHeader) (string, error) {
	if file.Size > s.cfg.Upload.MaxSize {
		return "", fmt.Errorf("文件大小超过限制（最大 %d MB）", s.cfg.Upload.MaxSize/1024/1024)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	filename := fmt.Sprintf("%s.csv", uuid.New().String())
	savePath := filepath.Join("uploads", "reports", filename)
	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return "", err
	}

	dst, err := os.Create(savePath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return savePath, nil
}

// MatchAttachmentsToRows 按文件名约定把一批附件归到各自的导入行。
// 行号从 1 起计，不符合约定的文件被忽略，同一行的附件按序号排序。
func MatchAttachmentsToRows(files []*multipart.FileHeader) map[int][]*multipart.FileHeader {
	type indexed struct {
		order int
		file  *multipart.FileHeader
	}
	grouped := make(map[int][]indexed)
	for _, file := range files {
		matches := attachmentNamePattern.FindStringSubmatch(filepath.Base(file.Filename))
		if matches == nil {
			continue
		}
		row, err := strconv.Atoi(matches[1])
		if err != nil || row < 1 {
			continue
		}
		order, _ := strconv.Atoi(matches[2])
		grouped[row] = append(grouped[row], indexed{order: order, file: file})
	}

	result := make(map[int][]*multipart.FileHeader, len(grouped))
	for row, entries := range grouped {
		sort.Slice(entries, func(i, j int) bool { return entries[i].order < entries[j].order })
		files := make([]*multipart.FileHeader, len(entries))
		for i, entry := range entries {
			files[i] = entry.file
		}
		result[row] = files
	}
	return result
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.EqualFold(ext, normalized) {
			return true
		}
	}
	return false
}
