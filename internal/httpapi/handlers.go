package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MimeLyc/poe-dubber/internal/dub"
	"github.com/MimeLyc/poe-dubber/pkg/log"
)

const (
	fieldVideo          = "video"
	fieldTargetLanguage = "target_language"
)

type dubResponse struct {
	Status         string `json:"status"`
	OutputVideo    string `json:"output_video"`
	TargetLanguage string `json:"target_language"`
	OutputURL      string `json:"output_url,omitempty"`
}

var errMissingField = errors.New("missing form field")

func (s *Server) handleDub(w http.ResponseWriter, r *http.Request) {
	req, err := s.readDubRequest(r)
	if err != nil {
		if errors.Is(err, errMissingField) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Error("Failed to read upload: %v", err)
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	res, err := s.dubber.Run(r.Context(), req)
	if err != nil {
		stage := dub.StageOf(err)
		if stage == "" {
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s failed", stage))
		return
	}

	writeJSON(w, http.StatusOK, dubResponse{
		Status:         "done",
		OutputVideo:    res.OutputVideo,
		TargetLanguage: res.TargetLanguage,
		OutputURL:      res.OutputURL,
	})
}

// readDubRequest reads the whole video part into memory.
// A request without both fields, or one that is not multipart, yields errMissingField.
func (s *Server) readDubRequest(r *http.Request) (dub.Request, error) {
	if err := r.ParseMultipartForm(s.maxMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return dub.Request{}, fmt.Errorf("%w: %s and %s are required", errMissingField, fieldVideo, fieldTargetLanguage)
		}
		return dub.Request{}, fmt.Errorf("parse multipart form: %w", err)
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	var missing []string
	langs, hasLang := r.MultipartForm.Value[fieldTargetLanguage]
	// an empty value counts as missing, whitespace is passed through
	if !hasLang || len(langs) == 0 || langs[0] == "" {
		missing = append(missing, fieldTargetLanguage)
	}
	files := r.MultipartForm.File[fieldVideo]
	if len(files) == 0 {
		missing = append([]string{fieldVideo}, missing...)
	}
	if len(missing) > 0 {
		return dub.Request{}, fmt.Errorf("%w: %s", errMissingField, strings.Join(missing, ", "))
	}

	f, err := files[0].Open()
	if err != nil {
		return dub.Request{}, fmt.Errorf("open %s part: %w", fieldVideo, err)
	}
	defer f.Close()

	video, err := io.ReadAll(f)
	if err != nil {
		return dub.Request{}, fmt.Errorf("read %s part: %w", fieldVideo, err)
	}

	return dub.Request{Video: video, TargetLanguage: langs[0]}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"detail": msg,
	})
}
