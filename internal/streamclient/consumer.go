package streamclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lk2023060901/zhi-text-evaluator/internal/analysis/types"
	"github.com/lk2023060901/zhi-text-evaluator/internal/document/processor"
	"github.com/lk2023060901/zhi-text-evaluator/internal/pkg/logger"
	"go.uber.org/zap"
)

const (
	dataPrefix   = "data: "
	readBufSize  = 4096
	errorSnippet = 512
)

// ErrStreamEnded 流在终止事件之前结束
var ErrStreamEnded = errors.New("stream ended before a terminal event")

// HTTPError 服务端返回的非 200 响应
type HTTPError struct {
	StatusCode int
	Message    string
	Code       int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// UpdateFunc 每个事件应用到 Transcript 之后调用
type UpdateFunc func(ev Event, t *Transcript)

// Option Consumer 选项
type Option func(*Consumer)

// WithHTTPClient 替换 HTTP 客户端（不应设置整体超时，流可能持续数分钟）
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Consumer) { c.httpClient = hc }
}

// WithLogger 设置日志
func WithLogger(lgr *logger.Logger) Option {
	return func(c *Consumer) { c.logger = logger.OrGlobal(lgr) }
}

// Consumer 分析服务的客户端：发起请求并增量读取事件流
type Consumer struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// New 创建客户端，baseURL 形如 http://localhost:5000
func New(baseURL string, opts ...Option) *Consumer {
	c := &Consumer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger.OrGlobal(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze 发起流式分析，返回最终的 Transcript
func (c *Consumer) Analyze(ctx context.Context, req *types.AnalysisRequest, onUpdate UpdateFunc) (*Transcript, error) {
	return c.stream(ctx, "/api/analyze", req, onUpdate)
}

// Chat 发起流式对话
func (c *Consumer) Chat(ctx context.Context, req *types.ChatRequest, onUpdate UpdateFunc) (*Transcript, error) {
	return c.stream(ctx, "/api/chat", req, onUpdate)
}

func (c *Consumer) stream(ctx context.Context, path string, body interface{}, onUpdate UpdateFunc) (*Transcript, error) {
	resp, err := c.postJSON(ctx, path, body, "text/event-stream")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeHTTPError(resp)
	}

	return Consume(resp.Body, onUpdate)
}

// Consume 从 r 增量读取事件流。
// 按换行切分，末尾不完整的行保留在缓冲区直到换行到达；只处理 "data: " 行，无法解析的行被跳过。
// 收到 completed 或 error 后立即停止读取。
func Consume(r io.Reader, onUpdate UpdateFunc) (*Transcript, error) {
	t := &Transcript{}
	br := bufio.NewReaderSize(r, readBufSize)

	for {
		line, readErr := br.ReadString('\n')
		if readErr == nil {
			ev, ok := parseLine(strings.TrimSuffix(line, "\n"))
			if !ok {
				continue
			}
			done := t.Apply(ev)
			if onUpdate != nil {
				onUpdate(ev, t)
			}
			if done {
				return t, nil
			}
			continue
		}

		// 没有换行结尾的残余数据不是完整事件
		if errors.Is(readErr, io.EOF) {
			return t, ErrStreamEnded
		}
		return t, readErr
	}
}

func parseLine(line string) (Event, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, dataPrefix) {
		return Event{}, false
	}
	var ev Event
	if err := json.Unmarshal([]byte(line[len(dataPrefix):]), &ev); err != nil {
		return Event{}, false
	}
	return ev, true
}

// Upload 上传文件，返回提取结果
func (c *Consumer) Upload(ctx context.Context, path string) (*processor.ProcessedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeHTTPError(resp)
	}

	var out processor.ProcessedFile
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	c.logger.Debug("document uploaded",
		zap.String("filename", out.Filename),
		zap.Int("words", out.WordCount),
		zap.Int("chunks", len(out.Chunks)))
	return &out, nil
}

// Download 请求下载内容，返回附件内容和服务端给出的文件名
func (c *Consumer) Download(ctx context.Context, content, filename string) ([]byte, string, error) {
	resp, err := c.postJSON(ctx, "/api/download", map[string]string{
		"content":  content,
		"filename": filename,
	}, "text/plain")
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", decodeHTTPError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, attachmentName(resp.Header.Get("Content-Disposition")), nil
}

// Recent 最近的分析记录
func (c *Consumer) Recent(ctx context.Context, limit int) ([]types.AnalysisRecord, error) {
	url := c.baseURL + "/api/analyses"
	if limit > 0 {
		url += "?limit=" + strconv.Itoa(limit)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list analyses failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeHTTPError(resp)
	}

	var out struct {
		Analyses []types.AnalysisRecord `json:"analyses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode analyses: %w", err)
	}
	return out.Analyses, nil
}

func (c *Consumer) postJSON(ctx context.Context, path string, body interface{}, accept string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	c.logger.Debug("request sent",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))
	return resp, nil
}

func decodeHTTPError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippet))

	var body struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return &HTTPError{StatusCode: resp.StatusCode, Message: body.Error, Code: body.Code}
	}

	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
}

// attachmentName 从 Content-Disposition 中取出 filename
func attachmentName(header string) string {
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
