package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pastefind/pastefind/internal/models"
	"github.com/pastefind/pastefind/pkg/identify"
	"github.com/pastefind/pastefind/pkg/normalize"
)

// maxUploadBytes caps uploaded audio files at 25 MB.
const maxUploadBytes = 25 << 20

type identifyRequest struct {
	URL string `json:"url"`
}

type identifyResult struct {
	resp models.Response
	err  error
}

// identifyJob runs one request on the worker pool and delivers the result on
// its own buffered channel, so an abandoned job never blocks a worker.
type identifyJob struct {
	id     string
	req    *models.Request
	reqCtx context.Context
	svc    Identifier
	out    chan identifyResult
}

func (j *identifyJob) ID() string { return j.id }

// Execute runs the pipeline under a context that ends when either the
// caller's request context or the pool's lifetime context does, so a
// disconnected client frees its worker instead of pinning it through the
// full acquisition ceiling.
func (j *identifyJob) Execute(poolCtx context.Context) {
	ctx, cancel := context.WithCancel(j.reqCtx)
	defer cancel()
	stop := context.AfterFunc(poolCtx, cancel)
	defer stop()

	resp, err := j.svc.Identify(ctx, j.req)
	j.out <- identifyResult{resp: resp, err: err}
}

func (s *Server) handleIdentifyURL(c *gin.Context) {
	var body identifyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, normalize.Failure("request body must be JSON with a url field"))
		return
	}
	s.dispatch(c, &models.Request{SourceURL: body.URL})
}

func (s *Server) handleIdentifyUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, normalize.Failure("an audio file upload is required"))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, normalize.Failure("uploaded file is too large"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, normalize.Failure("could not read the uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil || len(data) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, normalize.Failure("could not read the uploaded file"))
		return
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	s.dispatch(c, &models.Request{Upload: &models.Upload{Bytes: data, Extension: ext}})
}

// submit runs one request on the worker pool and waits for its result. The
// caller context both bounds the wait and propagates into the job itself.
func (s *Server) submit(ctx context.Context, req *models.Request) (identifyResult, error) {
	job := &identifyJob{
		id:     uuid.NewString(),
		req:    req,
		reqCtx: ctx,
		svc:    s.svc,
		out:    make(chan identifyResult, 1),
	}
	if err := s.pool.Submit(job); err != nil {
		return identifyResult{}, err
	}

	select {
	case res := <-job.out:
		return res, nil
	case <-ctx.Done():
		log.WithField("jobID", job.id).Info("Caller gone before identification finished")
		return identifyResult{}, ctx.Err()
	}
}

// dispatch submits the request to the worker pool and writes the HTTP
// response. A full queue sheds load with 503 instead of stacking goroutines.
func (s *Server) dispatch(c *gin.Context, req *models.Request) {
	res, err := s.submit(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		log.WithError(err).Warn("Rejecting request, worker pool saturated")
		c.JSON(http.StatusServiceUnavailable, normalize.Failure("server is busy, try again later"))
		return
	}
	c.JSON(statusFor(res.err), res.resp)
}

// statusFor maps pipeline outcomes to HTTP status codes. Recognition
// failures are normal outcomes and stay 200 with the error in the body;
// only rejected input is a client error.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var idErr *identify.Error
	if errors.As(err, &idErr) && idErr.Kind == identify.KindInvalidInput {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

func (s *Server) handleHealth(c *gin.Context) {
	stats := s.pool.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"queued":    stats.Queued,
		"processed": stats.Processed,
	})
}
