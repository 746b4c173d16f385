package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sumithkumar123/resume-analysis-app/internal/applicant"
	"github.com/sumithkumar123/resume-analysis-app/internal/parser"
	"github.com/sumithkumar123/resume-analysis-app/internal/store"
)

type enrichRequest struct {
	URL     string `json:"url"`
	RawText string `json:"raw_text"`
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.RawText) == "" {
		jsonError(w, "missing raw_text in request body", http.StatusBadRequest)
		return
	}

	s.enrichAndSave(w, r, req.RawText)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	p, err := parser.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if pp, ok := p.(*parser.PDFParser); ok {
		pp.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	rawText, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Error("resume parse failed", "filename", filename, "error", err)
		jsonError(w, "failed to parse resume: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if strings.TrimSpace(rawText) == "" {
		jsonError(w, "no text content in resume", http.StatusUnprocessableEntity)
		return
	}

	s.enrichAndSave(w, r, rawText)
}

// enrichAndSave runs the enrichment pipeline on raw resume text and
// persists the result. Upstream failures map to 502; an empty extraction
// maps to 404 so callers can tell "nothing found" from "something broke".
func (s *Server) enrichAndSave(w http.ResponseWriter, r *http.Request, rawText string) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.EnrichTimeout)
	defer cancel()

	rec, ok, err := s.gemini.Enrich(ctx, rawText)
	if err != nil {
		s.log.Error("enrichment failed", "error", err)
		jsonError(w, "error processing resume: "+err.Error(), http.StatusBadGateway)
		return
	}
	if !ok || rec.IsEmpty() {
		jsonError(w, "no data extracted from raw text", http.StatusNotFound)
		return
	}

	id, err := s.store.SaveApplicant(ctx, rec)
	if err != nil {
		if errors.Is(err, store.ErrIncomplete) {
			jsonError(w, "validation error: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error("save applicant failed", "error", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message":   "applicant data saved successfully",
		"id":        id,
		"applicant": rec,
	})
}

// searchResult is one search row with name and email encrypted for
// transport.
type searchResult struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Email      string               `json:"email"`
	Education  applicant.Education  `json:"education"`
	Experience applicant.Experience `json:"experience"`
	Skills     []string             `json:"skills"`
	Summary    string               `json:"summary"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	encryptedName := r.URL.Query().Get("name")
	if encryptedName == "" {
		jsonError(w, "missing name query parameter", http.StatusBadRequest)
		return
	}

	name, err := s.cipher.Decrypt(encryptedName)
	if err != nil {
		jsonError(w, "invalid encrypted name", http.StatusBadRequest)
		return
	}

	applicants, err := s.store.SearchByName(r.Context(), name)
	if err != nil {
		s.log.Error("search failed", "error", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if len(applicants) == 0 {
		jsonError(w, "no matching records found", http.StatusNotFound)
		return
	}

	results := make([]searchResult, 0, len(applicants))
	for _, a := range applicants {
		encName, err := s.cipher.Encrypt(a.Name)
		if err != nil {
			s.log.Error("encrypt name failed", "error", err)
			jsonError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		encEmail, err := s.cipher.Encrypt(a.Email)
		if err != nil {
			s.log.Error("encrypt email failed", "error", err)
			jsonError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		results = append(results, searchResult{
			ID:         a.ID,
			Name:       encName,
			Email:      encEmail,
			Education:  a.Education,
			Experience: a.Experience,
			Skills:     a.Skills,
			Summary:    a.Summary,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
