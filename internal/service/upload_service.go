package service

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/constants"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
)

// uploadScene 上传场景及其允许的文件类别
type uploadScene struct {
	allowDocuments bool
}

var allowedUploadScenes = map[string]uploadScene{
	constants.UploadSceneProofOfAddress: {allowDocuments: true},
	constants.UploadSceneBusinessLogo:   {},
	constants.UploadSceneProfileImage:   {},
}

// 部分文档类型无法通过文件头识别，按扩展名还原
var sniffedDocumentAliases = map[string]struct {
	sniffed   string
	canonical string
}{
	".docx": {sniffed: "application/zip", canonical: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".doc":  {sniffed: "application/octet-stream", canonical: "application/msword"},
}

var dataURIExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// UploadError 上传校验失败，Message 可直接展示给用户
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string {
	return e.Message
}

// Is 归类为 ErrUploadInvalid
func (e *UploadError) Is(target error) bool {
	return target == ErrUploadInvalid
}

func uploadErrorf(format string, args ...interface{}) error {
	return &UploadError{Message: fmt.Sprintf(format, args...)}
}

// UploadService 本地磁盘文件上传服务
type UploadService struct {
	cfg *config.Config
}

// NewUploadService 创建文件上传服务实例
func NewUploadService(cfg *config.Config) *UploadService {
	return &UploadService{cfg: cfg}
}

// SaveFile 保存 multipart 上传的文件，返回可访问路径
func (s *UploadService) SaveFile(file *multipart.FileHeader, scene string) (string, error) {
	if file == nil {
		return "", uploadErrorf("No file uploaded")
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return s.save(src, file.Size, strings.ToLower(filepath.Ext(file.Filename)), scene)
}

// SaveBase64 保存 data URI 形式的文件
func (s *UploadService) SaveBase64(dataURI, scene string) (string, error) {
	mimeType, payload, err := parseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	ext, ok := dataURIExtensions[mimeType]
	if !ok {
		return "", uploadErrorf("File type not allowed: %s", mimeType)
	}
	return s.save(bytes.NewReader(payload), int64(len(payload)), ext, scene)
}

func (s *UploadService) save(src io.ReadSeeker, size int64, ext, scene string) (string, error) {
	normalizedScene, rule, ok := resolveUploadScene(scene)
	if !ok {
		return "", uploadErrorf("Unknown upload scene: %s", scene)
	}
	maxSize := s.cfg.Upload.MaxSize
	if maxSize > 0 && size > maxSize {
		return "", &UploadError{Message: fmt.Sprintf("File too large (max %d MB)", maxSize/1024/1024)}
	}
	if size == 0 {
		return "", uploadErrorf("Uploaded file is empty")
	}

	allowedExts := s.cfg.Upload.ImageExtensions
	if rule.allowDocuments {
		allowedExts = append(append([]string{}, allowedExts...), s.cfg.Upload.DocumentExtension...)
	}
	if len(allowedExts) > 0 {
		if ext == "" || !isAllowedExtension(ext, allowedExts) {
			return "", uploadErrorf("File extension not allowed: %s", ext)
		}
	}

	// 读取文件头部识别 MIME 类型
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	contentType := http.DetectContentType(buffer[:n])
	if alias, ok := sniffedDocumentAliases[ext]; ok && rule.allowDocuments && contentType == alias.sniffed {
		contentType = alias.canonical
	}

	allowedTypes := s.cfg.Upload.ImageTypes
	if rule.allowDocuments {
		allowedTypes = append(append([]string{}, allowedTypes...), s.cfg.Upload.DocumentTypes...)
	}
	if len(allowedTypes) > 0 && !containsFold(allowedTypes, contentType) {
		return "", uploadErrorf("File type not allowed: %s", contentType)
	}

	if strings.HasPrefix(contentType, "image/") {
		width, height, err := decodeImageDimensions(src, contentType)
		if err != nil {
			return "", uploadErrorf("%s", err.Error())
		}
		if s.cfg.Upload.MaxWidth > 0 && width > s.cfg.Upload.MaxWidth {
			return "", uploadErrorf("Image width exceeds limit (max %d)", s.cfg.Upload.MaxWidth)
		}
		if s.cfg.Upload.MaxHeight > 0 && height > s.cfg.Upload.MaxHeight {
			return "", uploadErrorf("Image height exceeds limit (max %d)", s.cfg.Upload.MaxHeight)
		}
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	// uploads/<scene>/<yyyy>/<mm>/<uuid>.<ext>
	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	now := time.Now()
	year := now.Format("2006")
	month := now.Format("01")
	savePath := filepath.Join(s.uploadDir(), normalizedScene, year, month, filename)

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

	return fmt.Sprintf("%s/%s/%s/%s/%s", s.publicPath(), normalizedScene, year, month, filename), nil
}

func (s *UploadService) uploadDir() string {
	if dir := strings.TrimSpace(s.cfg.Upload.Dir); dir != "" {
		return dir
	}
	return "uploads"
}

func (s *UploadService) publicPath() string {
	path := strings.TrimRight(strings.TrimSpace(s.cfg.Upload.PublicPath), "/")
	if path == "" {
		return "/uploads"
	}
	return path
}

func resolveUploadScene(raw string) (string, uploadScene, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	rule, ok := allowedUploadScenes[value]
	return value, rule, ok
}

// parseDataURI 解析 data:<mime>;base64,<payload>
func parseDataURI(raw string) (string, []byte, error) {
	value := strings.TrimSpace(raw)
	if !strings.HasPrefix(value, "data:") {
		return "", nil, uploadErrorf("Invalid base64 file format")
	}
	header, encoded, found := strings.Cut(value[len("data:"):], ",")
	if !found || !strings.HasSuffix(header, ";base64") {
		return "", nil, uploadErrorf("Invalid base64 file format")
	}
	mimeType := strings.ToLower(strings.TrimSuffix(header, ";base64"))
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, uploadErrorf("Invalid base64 file content")
	}
	return mimeType, payload, nil
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
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

func decodeImageDimensions(src io.ReadSeeker, contentType string) (int, int, error) {
	if strings.EqualFold(contentType, "image/webp") {
		width, height, err := decodeWebPDimensions(src)
		if err != nil {
			return 0, 0, fmt.Errorf("unable to parse webp image: %w", err)
		}
		return width, height, nil
	}

	if _, err := src.Seek(0, 0); err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to parse image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

func decodeWebPDimensions(src io.ReadSeeker) (int, int, error) {
	if _, err := src.Seek(0, 0); err != nil {
		return 0, 0, err
	}

	header := make([]byte, 12)
	if _, err := io.ReadFull(src, header); err != nil {
		return 0, 0, err
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
		return 0, 0, fmt.Errorf("invalid webp header")
	}

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(src, chunkHeader); err != nil {
			return 0, 0, err
		}
		chunkType := string(chunkHeader[0:4])
		chunkSize := int(binary.LittleEndian.Uint32(chunkHeader[4:8]))
		if chunkSize < 0 {
			return 0, 0, fmt.Errorf("invalid webp chunk")
		}

		data := make([]byte, chunkSize)
		if _, err := io.ReadFull(src, data); err != nil {
			return 0, 0, err
		}

		if chunkType == "VP8X" {
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("vp8x chunk too short")
			}
			width := 1 + int(data[4]) + int(data[5])<<8 + int(data[6])<<16
			height := 1 + int(data[7]) + int(data[8])<<8 + int(data[9])<<16
			return width, height, nil
		}
		if chunkType == "VP8 " {
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("vp8 chunk too short")
			}
			width := int(binary.LittleEndian.Uint16(data[6:8]) & 0x3FFF)
			height := int(binary.LittleEndian.Uint16(data[8:10]) & 0x3FFF)
			return width, height, nil
		}
		if chunkType == "VP8L" {
			if len(data) < 5 {
				return 0, 0, fmt.Errorf("vp8l chunk too short")
			}
			if data[0] != 0x2f {
				return 0, 0, fmt.Errorf("invalid vp8l signature")
			}
			bits := binary.LittleEndian.Uint32(data[1:5])
			width := int(bits&0x3FFF) + 1
			height := int((bits>>14)&0x3FFF) + 1
			return width, height, nil
		}

		if chunkSize%2 == 1 {
			if _, err := src.Seek(1, io.SeekCurrent); err != nil {
				return 0, 0, err
			}
		}
	}
}
