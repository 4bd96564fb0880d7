package server

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/click2vector/internal/collection"
	"github.com/sells-group/click2vector/internal/export"
	"github.com/sells-group/click2vector/internal/model"
	"github.com/sells-group/click2vector/internal/session"
	"github.com/sells-group/click2vector/internal/sheets"
)

const maxUploadBytes = 16 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type sessionResponse struct {
	ID string `json:"id"`
}

type pointsResponse struct {
	Points []model.Point `json:"points"`
	Count  int           `json:"count"`
}

type addPointRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
	Source    string  `json:"source"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type importSheetRequest struct {
	URL  string `json:"url"`
	Mode string `json:"mode"`
}

type importResponse struct {
	Added  int               `json:"added"`
	Total  int               `json:"total"`
	Errors []sheets.RowError `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// sessionFromRequest resolves the {id} URL param to a live session, writing
// the error response itself on failure.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) *session.Session {
	id := chi.URLParam(r, "id")
	sess, err := s.registry.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found or expired")
		return nil
	}
	return sess
}

func pointIndexFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid point index")
		return 0, false
	}
	return idx, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.registry.Create()
	respondJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID})
}

func (s *Server) handleListPoints(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromRequest(w, r)
	if sess == nil {
		return
	}
	pts := sess.Collection.Points()
	respondJSON(w, http.StatusOK, pointsResponse{Points: pts, Count: len(pts)})
}

func (s *Server) handleAddPoint(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	var req addPointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	source := model.SourceMapClick
	if req.Source == string(model.SourceManual) {
		source = model.SourceManual
	}

	p := model.New(req.Latitude, req.Longitude, strings.TrimSpace(req.Name), source)
	idx, stored, err := sess.Collection.Add(p)
	if err != nil {
		status := http.StatusBadRequest
		if eris.Is(err, collection.ErrFull) {
			status = http.StatusConflict
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"index": idx,
		"point": stored,
	})
}

func (s *Server) handleRenamePoint(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromRequest(w, r)
	if sess == nil {
		return
	}
	idx, ok := pointIndexFromRequest(w, r)
	if !ok {
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sess.Collection.Rename(idx, strings.TrimSpace(req.Name)); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (s *Server) handleDeletePoint(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromRequest(w, r)
	if sess == nil {
		return
	}
	idx, ok := pointIndexFromRequest(w, r)
	if !ok {
		return
	}

	if err := sess.Collection.RemoveAt(idx); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleClearPoints clears the collection, or removes only the most recent
// point when called with ?last=1.
func (s *Server) handleClearPoints(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	if r.URL.Query().Get("last") != "" {
		if err := sess.Collection.RemoveLast(); err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "removed last"})
		return
	}

	sess.Collection.Clear()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleImportSheet(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	var req importSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	mode, err := sheets.ParseMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.fetcher.ImportSheet(r.Context(), req.URL, mode)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.finishImport(w, sess, res)
}

func (s *Server) handleImportUpload(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	mode, err := sheets.ParseMode(r.FormValue("mode"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	var rows [][]string
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx":
		data, readErr := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if readErr != nil {
			respondError(w, http.StatusBadRequest, "could not read upload")
			return
		}
		rows, err = sheets.ReadXLSX(data)
	case ".csv", ".txt":
		rows, err = sheets.ParseCSV(io.LimitReader(file, maxUploadBytes))
	default:
		respondError(w, http.StatusBadRequest, "unsupported file type (want .csv or .xlsx)")
		return
	}
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := sheets.ParseTable(rows, mode, model.SourceUpload)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.finishImport(w, sess, res)
}

// finishImport appends parsed points and reports counts plus row errors.
func (s *Server) finishImport(w http.ResponseWriter, sess *session.Session, res sheets.Result) {
	if res.Added == 0 {
		respondJSON(w, http.StatusUnprocessableEntity, importResponse{
			Added:  0,
			Total:  sess.Collection.Len(),
			Errors: res.Errors,
		})
		return
	}

	added, err := sess.Collection.AddAll(res.Points)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, importResponse{
		Added:  added,
		Total:  sess.Collection.Len(),
		Errors: res.Errors,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFromRequest(w, r)
	if sess == nil {
		return
	}

	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	basename := strings.TrimSpace(r.URL.Query().Get("name"))
	if basename == "" {
		basename = export.DefaultBasename(s.cfg.Export.BasenamePrefix)
	}

	data, err := export.Export(sess.Collection.Points(), format, basename)
	if err != nil {
		if eris.Is(err, export.ErrNoPoints) {
			respondError(w, http.StatusUnprocessableEntity, "no points to export")
			return
		}
		zap.L().Error("server: export failed",
			zap.String("format", string(format)),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", format.MIME())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(basename)+`"`)
	_, _ = w.Write(data)
}
