package router

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mohammed-shakir/landuse-api/internal/core/observability"
	"github.com/mohammed-shakir/landuse-api/internal/ingest"
	"github.com/mohammed-shakir/landuse-api/internal/logger"
)

const (
	uploadField      = "geojson"
	msgNoFile        = "No file uploaded"
	msgUploadTooBig  = "Uploaded file exceeds the size limit"
	defaultMaxUpload = 400 << 20
)

type uploadResponse struct {
	Message  string `json:"message"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
	Batches  int    `json:"batches"`
}

// errNoFile is returned by stage when the form has no geojson part.
var errNoFile = errors.New(msgNoFile)

func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	ctx := logger.WithUploadID(r.Context(), id)
	start := time.Now()

	maxBytes := a.upload.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	path, err := a.stage(r, id)
	if path != "" {
		defer func() {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				a.log.WarnContext(ctx, "remove staged upload", "path", path, "err", err)
			}
		}()
	}
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		observability.ObserveUpload("too_large", 0, 0)
		writeError(w, http.StatusRequestEntityTooLarge, msgUploadTooBig)
		return
	case errors.Is(err, errNoFile):
		observability.ObserveUpload("no_file", 0, 0)
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	case err != nil:
		a.log.ErrorContext(ctx, "stage upload failed", "err", err)
		observability.ObserveUpload("error", 0, 0)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	f, err := os.Open(path)
	if err != nil {
		observability.ObserveUpload("error", 0, 0)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = f.Close() }()

	batches, err := ingest.Parse(bufio.NewReader(f), a.upload.BatchSize)
	if err != nil {
		a.log.WarnContext(ctx, "rejecting upload", "err", err)
		observability.ObserveUpload("invalid", 0, 0)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.store.ReplaceAll(ctx, batches)
	if err != nil {
		a.log.ErrorContext(ctx, "replace features failed", "err", err)
		observability.ObserveUpload("error", 0, 0)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	observability.ObserveUpload("ok", res.Inserted, res.Skipped)
	a.log.InfoContext(ctx, "land use replaced",
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"batches", res.Batches,
		"dur_ms", time.Since(start).Milliseconds(),
	)

	if a.publisher != nil {
		if _, err := a.publisher.PublishReplace(ctx, res.Inserted); err != nil {
			a.log.WarnContext(ctx, "publish invalidation event failed", "err", err)
		}
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:  fmt.Sprintf("Successfully uploaded %d features", res.Inserted),
		Inserted: res.Inserted,
		Skipped:  res.Skipped,
		Batches:  res.Batches,
	})
}

// stage copies the geojson part of a multipart body into the upload
// directory. The returned path is set whenever a file was created.
func (a *API) stage(r *http.Request, id string) (string, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return "", errNoFile
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return "", errNoFile
		}
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return "", err
			}
			return "", fmt.Errorf("%w: %v", errNoFile, err)
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}

		dir := a.upload.Dir
		if dir == "" {
			dir = os.TempDir()
		}
		path := filepath.Join(dir, "landuse-"+id+".geojson")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err != nil {
			_ = part.Close()
			return "", fmt.Errorf("create staged upload: %w", err)
		}
		_, copyErr := io.Copy(f, part)
		closeErr := f.Close()
		_ = part.Close()
		if copyErr != nil {
			return path, fmt.Errorf("write staged upload: %w", copyErr)
		}
		if closeErr != nil {
			return path, fmt.Errorf("close staged upload: %w", closeErr)
		}
		return path, nil
	}
}
