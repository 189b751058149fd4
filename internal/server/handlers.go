package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"resilience-rag/internal/apperr"
	"resilience-rag/internal/models"
	"resilience-rag/internal/retrieval"
	"resilience-rag/internal/vectorstore"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	maxBytes := s.cfg.Uploads.MaxSizeMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	var tags []string
	if t := r.FormValue("tags"); t != "" {
		if err := json.Unmarshal([]byte(t), &tags); err != nil {
			s.respondError(w, http.StatusBadRequest, "tags must be a JSON string array")
			return
		}
	}

	fileKey, err := s.registry.Upload(sessionID, file, header.Filename, tags, r.FormValue("docType"))
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{
		"fileKey":  fileKey,
		"fileName": header.Filename,
		"status":   "uploaded",
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"files": s.registry.List(sessionID)})
}

type updateFileRequest struct {
	FileName string   `json:"fileName"`
	Tags     []string `json:"tags"`
	DocType  string   `json:"docType"`
}

func (s *Server) handleUpdateFile(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var req updateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	info, err := s.registry.UpdateInfo(sessionID, chi.URLParam(r, "fileKey"), req.FileName, req.Tags, req.DocType)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.registry.Delete(sessionID, chi.URLParam(r, "fileKey")); err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type mapColumnsRequest struct {
	ColumnSchema []models.ColumnSpec `json:"columnSchema"`
}

func (s *Server) handleMapColumns(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var req mapColumnsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.registry.MapColumns(sessionID, chi.URLParam(r, "fileKey"), req.ColumnSchema); err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "mapped"})
}

func (s *Server) handleGetColumns(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	cols, err := s.registry.GetColumns(sessionID, chi.URLParam(r, "fileKey"))
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"columns": cols})
}

func (s *Server) handleBuildStore(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	fileKey := chi.URLParam(r, "fileKey")
	chunks, err := s.registry.BuildStore(r.Context(), sessionID, fileKey)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"fileKey":    fileKey,
		"chunks":     chunks,
		"storeBuilt": true,
	})
}

func (s *Server) handleLoadDemo(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	fileKey, err := s.registry.LoadDemo(sessionID, s.cfg.Uploads.DemoDir, r.URL.Query().Get("demoName"))
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"fileKey": fileKey, "status": "loaded"})
}

func (s *Server) handleLoadAllDemos(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	loaded, err := s.registry.LoadAllDemos(r.Context(), sessionID, s.cfg.Uploads.DemoDir)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"files": loaded})
}

type queryRequest struct {
	FileKey      string               `json:"fileKey"`
	FileKeys     []string             `json:"fileKeys"`
	DocType      string               `json:"docType"`
	Facets       models.Facets        `json:"dependencyData"`
	Question     string               `json:"userQuery"`
	Language     string               `json:"language"`
	CustomFields []models.CustomField `json:"customFields"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ix, ok := s.registry.GetIndex(sessionID, req.FileKey)
	if !ok {
		s.respondError(w, http.StatusNotFound, "file not found or store not built")
		return
	}
	res, err := s.aggregator.Answer(r.Context(), []*vectorstore.Index{ix}, req.Facets, req.CustomFields, req.Question, req.Language, s.cfg.RAG.TopK)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleMultiQuery(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	targetKeys := req.FileKeys
	if req.DocType != "" {
		matched := s.registry.ListByDocType(sessionID, req.DocType, true)
		if len(req.FileKeys) > 0 {
			targetKeys = intersect(matched, req.FileKeys)
		} else {
			targetKeys = matched
		}
		if len(targetKeys) == 0 {
			s.respondJSON(w, http.StatusOK, models.PromptResponse{
				Docs:       []models.Chunk{},
				UsedPrompt: "No files matched docType or no fileKeys provided.",
			})
			return
		}
	}

	indexes := s.registry.IndexesByKeys(sessionID, targetKeys)
	res, err := s.aggregator.Answer(r.Context(), indexes, req.Facets, req.CustomFields, req.Question, req.Language, s.cfg.RAG.TopK)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

type buildGraphRequest struct {
	Docs []models.Chunk `json:"docs"`
}

func (s *Server) handleBuildGraph(w http.ResponseWriter, r *http.Request) {
	var req buildGraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respondJSON(w, http.StatusOK, retrieval.BuildGraph(req.Docs))
}

func (s *Server) handleQuickTalk(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	question := q.Get("question")
	fileKey := q.Get("fileKey")
	if fileKey == "" {
		s.respondError(w, http.StatusBadRequest, "fileKey is required")
		return
	}
	ix, ok := s.registry.GetIndex(sessionID, fileKey)
	if !ok {
		s.respondError(w, http.StatusNotFound, "file not found or store not built")
		return
	}

	conversation, err := s.memory.Search(r.Context(), sessionID, question, 20)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	res, err := s.aggregator.AnswerMultiSource(r.Context(), []*vectorstore.Index{ix}, conversation, question, 3)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"answer": res.Answer})
}

type saveMessageRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

func (s *Server) handleSaveMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var req saveMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.memory.Append(r.Context(), sessionID, req.Role, req.Text); err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"status": "saved"})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	if err := s.registry.DeleteSession(sessionID); err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted", "sessionId": sessionID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireSession extracts ?sessionId= or rejects the request.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		s.respondError(w, http.StatusBadRequest, "missing sessionId parameter")
		return "", false
	}
	return sessionID, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondAppError maps the error taxonomy onto HTTP statuses.
func (s *Server) respondAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindNotFound:
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	s.respondError(w, status, err.Error())
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, k := range b {
		set[k] = struct{}{}
	}
	var out []string
	for _, k := range a {
		if _, ok := set[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
