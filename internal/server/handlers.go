package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tessera/internal/models"
	"github.com/hyperjump/tessera/internal/mosaic"
	"github.com/hyperjump/tessera/internal/nn"
	"github.com/hyperjump/tessera/internal/storage"
	"github.com/hyperjump/tessera/internal/tile"
)

const recentBuilds = 5

var errFileTooLarge = errors.New("File too large")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"service":   "Mosaic API",
	})
}

func (s *Server) handleCreateMosaic(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.collector.RecordRejected("rate_limited")
		s.respondError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	cur := s.current.Load()
	if cur == nil {
		s.respondError(w, http.StatusServiceUnavailable, "index not loaded")
		return
	}

	data, err := s.readImage(w, r)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			s.collector.RecordRejected("too_large")
			s.respondError(w, http.StatusRequestEntityTooLarge, errFileTooLarge.Error())
			return
		}
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if err := s.renders.Acquire(ctx, 1); err != nil {
		s.collector.RecordRejected("busy")
		s.respondError(w, http.StatusServiceUnavailable, "server busy")
		return
	}
	defer s.renders.Release(1)

	format, err := tile.ParseFormat(s.config.Mosaic.Format)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var out bytes.Buffer
	enc := mosaic.Encoding{Format: format, Quality: s.config.Mosaic.JPEGQuality}
	if err := s.renderer.Process(ctx, bytes.NewReader(data), &out, cur.index, enc); err != nil {
		s.respondRenderError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Bytes())
}

// readImage extracts the image bytes from either a JSON body {"image": "<base64 or data URL>"}
// or a multipart form with an "image" file.
func (s *Server) readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := s.config.Server.MaxImageSize
	if limit > 0 {
		if r.ContentLength > limit {
			return nil, errFileTooLarge
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, tooLargeOr(err, "invalid multipart form")
		}
		f, _, err := r.FormFile("image")
		if err != nil {
			return nil, errors.New("image file is required")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, tooLargeOr(err, "failed to read image")
		}
		return data, nil
	}

	var req models.MosaicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, tooLargeOr(err, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	encoded := req.Image
	if i := strings.LastIndexByte(encoded, ','); i >= 0 {
		encoded = encoded[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("image is not valid base64")
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, errFileTooLarge
	}
	return data, nil
}

func tooLargeOr(err error, message string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errFileTooLarge
	}
	return errors.New(message)
}

func (s *Server) respondRenderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tile.ErrInvalidImage), errors.Is(err, nn.ErrShapeMismatch):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, nn.ErrIndexNotBuilt):
		s.respondError(w, http.StatusServiceUnavailable, "index not loaded")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.respondError(w, http.StatusServiceUnavailable, "render timed out")
	default:
		s.logger.Error("render failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to create mosaic")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var resp models.StatusResponse
	indexPath := s.config.Index.Path
	if cur := s.current.Load(); cur != nil {
		resp.Index = &models.IndexStatus{
			Type:     cur.index.Type(),
			Size:     cur.index.Size(),
			TileSide: cur.index.TileSide(),
			Path:     cur.path,
			LoadedAt: cur.loadedAt.Format(time.RFC3339),
		}
		if cur.path != "" {
			indexPath = cur.path
		}
	}
	if s.storage != nil {
		count, err := s.storage.CountTiles(ctx)
		if err != nil {
			s.logger.Error("status: count tiles failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.CorpusTiles = count
		builds, err := s.storage.ListBuilds(ctx, recentBuilds)
		if err != nil {
			s.logger.Error("status: list builds failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.RecentBuilds = builds
	}
	db := s.config.Corpus.DatabasePath
	if diskBytes, err := storage.DiskUsageBytes(db, db+"-wal", db+"-shm", indexPath); err == nil {
		resp.DiskUsageBytes = &diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
