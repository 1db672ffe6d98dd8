package service

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/zhi-text-evaluator/internal/document/processor"
	apperrors "github.com/lk2023060901/zhi-text-evaluator/internal/pkg/errors"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/response"
	"go.uber.org/zap"
)

const (
	// DefaultDownloadFilename 未指定文件名时的下载文件名
	DefaultDownloadFilename = "analysis-results.txt"

	// multipart 边界与表单字段的额外开销
	multipartOverhead = 1 << 20
)

// DownloadRequest 下载请求
type DownloadRequest struct {
	Content  string `json:"content"`
	Filename string `json:"filename,omitempty"`
}

// DocumentService 上传与下载接口
type DocumentService struct {
	processor *processor.Processor
	logger    *logger.Logger
}

// NewDocumentService 创建文档服务
func NewDocumentService(p *processor.Processor, lgr *logger.Logger) *DocumentService {
	return &DocumentService{
		processor: p,
		logger:    logger.OrGlobal(lgr).Named("document"),
	}
}

// RegisterRoutes 注册文档路由
func (s *DocumentService) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload", s.Upload)
	r.POST("/download", s.Download)
}

// Upload 上传文档并提取文本
// @Summary Upload a document and extract its text
// @Tags document
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document (.txt, .pdf, .doc, .docx)"
// @Success 200 {object} processor.ProcessedFile
// @Router /api/upload [post]
func (s *DocumentService) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.processor.MaxBytes()+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			response.ErrorWithCode(c, apperrors.ErrFileTooLarge)
			return
		}
		response.ErrorWithCode(c, apperrors.ErrNoFileUploaded)
		return
	}
	if fh.Size > s.processor.MaxBytes() {
		response.ErrorWithCode(c, apperrors.ErrFileTooLarge)
		return
	}

	data, err := readFormFile(fh)
	if err != nil {
		response.HandleError(c, apperrors.Wrap(err, apperrors.ErrDocumentProcessing))
		return
	}

	result, err := s.processor.Process(c.Request.Context(), fh.Filename, data)
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Warn("upload rejected",
			zap.String("filename", fh.Filename),
			zap.Error(err))
		response.HandleError(c, err)
		return
	}

	response.OK(c, result)
}

// Download 将内容作为纯文本附件返回
// @Summary Download analysis results as a text file
// @Tags document
// @Accept json
// @Produce text/plain
// @Param request body DownloadRequest true "Download Request"
// @Router /api/download [post]
func (s *DocumentService) Download(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		response.ErrorWithCode(c, apperrors.ErrNoContentToDownload)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+safeFilename(req.Filename)+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(req.Content))
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	// multipart 解析不总是保留原始错误
	return strings.Contains(err.Error(), "request body too large")
}

// safeFilename 去掉路径与引号，空值使用默认文件名
func safeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultDownloadFilename
	}
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == "/" {
		return DefaultDownloadFilename
	}
	return name
}
