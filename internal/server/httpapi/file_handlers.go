package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/common"
)

// maxUploadMemory bounds the multipart parser's in-memory buffer; larger
// parts spill to temp files.
const maxUploadMemory = 32 << 20

type fileListItem struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// validFilename rejects empty names and anything that could be a path
// traversal attempt. The blob store checks again, but rejecting here keeps
// the error a clean 400.
func validFilename(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	return !strings.Contains(name, "..") &&
		!strings.Contains(name, "/") &&
		!strings.Contains(name, `\`)
}

func filenameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	filename := r.URL.Query().Get("filename")
	if strings.TrimSpace(filename) == "" {
		writeError(w, http.StatusBadRequest, "Filename is required")
		return "", false
	}
	if !validFilename(filename) {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return "", false
	}
	return filename, true
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	filename, ok := filenameParam(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	part, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}

	if err := s.files.Upload(r.Context(), user, filename, data); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			writeError(w, http.StatusBadRequest, "File already exists")
			return
		}
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	filename, ok := filenameParam(w, r)
	if !ok {
		return
	}

	data, err := s.files.Download(r.Context(), user, filename)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	filename, ok := filenameParam(w, r)
	if !ok {
		return
	}

	if err := s.files.Delete(r.Context(), user, filename); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	filename, ok := filenameParam(w, r)
	if !ok {
		return
	}

	// Different client revisions send the new name under different keys.
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "New file name is required")
		return
	}
	newName := body["name"]
	if newName == "" {
		newName = body["filename"]
	}
	if newName == "" {
		newName = body["newName"]
	}
	newName = strings.TrimSpace(newName)

	if newName == "" {
		writeError(w, http.StatusBadRequest, "New file name is required")
		return
	}
	if !validFilename(newName) {
		writeError(w, http.StatusBadRequest, "Invalid new filename")
		return
	}

	if err := s.files.Rename(r.Context(), user, filename, newName); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	// Absent limit means unlimited; a non-positive limit clamps to zero.
	limit := -1
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
		if limit < 0 {
			limit = 0
		}
	}

	records, err := s.files.List(r.Context(), user, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]fileListItem, 0, len(records))
	for _, rec := range records {
		items = append(items, fileListItem{Filename: rec.Filename, Size: rec.Size})
	}
	writeJSON(w, http.StatusOK, items)
}
