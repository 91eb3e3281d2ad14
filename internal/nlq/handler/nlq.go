// Package handler provides HTTP handlers for the NLQ service.
package handler

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-nlq/internal/nlq/biz"
	"github.com/kart-io/sentinel-nlq/internal/pkg/httputils"
	"github.com/kart-io/sentinel-nlq/pkg/utils/errors"
	"github.com/kart-io/sentinel-nlq/pkg/utils/id"
)

// UploadField is the multipart field carrying uploaded files.
const UploadField = "files"

// Config 处理器配置。
type Config struct {
	// UploadDir 上传文件暂存目录。
	UploadDir string
	// DefaultConnection 请求未携带连接串时使用。
	DefaultConnection string
}

// NLQHandler handles NLQ HTTP requests.
type NLQHandler struct {
	app *biz.AppContext
	cfg Config
}

// NewNLQHandler creates a new NLQHandler.
func NewNLQHandler(app *biz.AppContext, cfg Config) *NLQHandler {
	return &NLQHandler{app: app, cfg: cfg}
}

// ConnectRequest is the body of POST /connect-database.
type ConnectRequest struct {
	ConnectionString string `json:"connection_string"`
}

// ConnectDatabase connects to a database and returns its schema.
func (h *NLQHandler) ConnectDatabase(c *gin.Context) {
	var req ConnectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputils.WriteResponse(c, errors.ErrNLQInvalidRequest.WithMessage(err.Error()), nil)
			return
		}
	}
	conn := strings.TrimSpace(req.ConnectionString)
	if conn == "" {
		conn = h.cfg.DefaultConnection
	}
	if conn == "" {
		httputils.WriteResponse(c, errors.ErrNLQInvalidRequest.WithMessage("connection_string is required"), nil)
		return
	}

	s, err := h.app.Connect(c.Request.Context(), conn)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteMessage(c, "Connection successful", gin.H{"schema": s})
}

// UploadDocuments stores the uploaded files and queues one ingestion job.
// The staging directory is removed when the job finishes.
func (h *NLQHandler) UploadDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		httputils.WriteResponse(c, errors.ErrNLQInvalidRequest.WithMessage("No files provided"), nil)
		return
	}
	files := form.File[UploadField]
	if len(files) == 0 {
		httputils.WriteResponse(c, errors.ErrNLQInvalidRequest.WithMessage("No files provided"), nil)
		return
	}

	dir := filepath.Join(h.cfg.UploadDir, id.NewULID())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		httputils.WriteResponse(c, errors.ErrNLQIngestFailed.WithCause(err), nil)
		return
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warnw("Failed to remove upload directory", "dir", dir, "error", err)
		}
	}

	paths := make([]string, 0, len(files))
	for i, fh := range files {
		name := filepath.Base(fh.Filename)
		if name == "." || name == string(filepath.Separator) {
			continue
		}
		// 每个文件独立子目录，同名文件互不覆盖
		sub := filepath.Join(dir, strconv.Itoa(i))
		dst := filepath.Join(sub, name)
		if err := os.MkdirAll(sub, 0o755); err != nil {
			cleanup()
			httputils.WriteResponse(c, errors.ErrNLQIngestFailed.WithCause(err), nil)
			return
		}
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			cleanup()
			httputils.WriteResponse(c, errors.ErrNLQIngestFailed.WithCause(err), nil)
			return
		}
		paths = append(paths, dst)
	}

	jobID, err := h.app.Submit(c.Request.Context(), paths, biz.WithCleanup(cleanup))
	if err != nil {
		cleanup()
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, gin.H{"job_id": jobID, "status": "queued"})
}

// IngestionStatus returns one job.
func (h *NLQHandler) IngestionStatus(c *gin.Context) {
	job, err := h.app.Job(c.Param("job_id"))
	httputils.WriteResponse(c, err, job)
}

// ListJobs returns all jobs in creation order, optionally filtered by ?status=.
func (h *NLQHandler) ListJobs(c *gin.Context) {
	var jobs []*biz.Job
	if status := c.Query("status"); status != "" {
		jobs = h.app.JobsByStatus(biz.JobStatus(status))
	} else {
		jobs = h.app.Jobs()
	}
	if jobs == nil {
		jobs = []*biz.Job{}
	}
	httputils.WriteResponse(c, nil, gin.H{"jobs": jobs})
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// Query answers a natural-language query.
func (h *NLQHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrNLQInvalidRequest.WithMessage("query must not be empty"), nil)
		return
	}
	resp, err := h.app.Query(c.Request.Context(), req.Query)
	httputils.WriteResponse(c, err, resp)
}

// History returns the most recent queries, newest first.
func (h *NLQHandler) History(c *gin.Context) {
	httputils.WriteResponse(c, nil, gin.H{"history": h.app.History()})
}

// Schema returns the schema of the connected database.
func (h *NLQHandler) Schema(c *gin.Context) {
	s, err := h.app.Schema()
	httputils.WriteResponse(c, err, s)
}
