package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/docs-translator/internal/language"
	"github.com/JakeFAU/docs-translator/internal/store"
	"github.com/JakeFAU/docs-translator/internal/vector"
)

const maxSearchResults = 50

// listProjects handles GET /v1/projects and returns {"projects": [...]}.
func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		s.logger.Error("list projects failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	if projects == nil {
		projects = []store.Project{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

// getProject handles GET /v1/projects/{project_id}. It answers 404 when
// the store reports store.ErrNotFound.
func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": project})
}

// listFiles handles GET /v1/projects/{project_id}/files and returns the
// navigation rows in sort order.
func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	files, err := s.store.ListFileTrees(r.Context(), project.ID)
	if err != nil {
		s.logger.Error("list files failed", zap.String("project_id", project.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list files")
		return
	}
	if files == nil {
		files = []store.FileTreeEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// search handles GET /v1/projects/{project_id}/search?q=&k=. The query is
// embedded and matched against the project's paragraphs.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	if s.vectors == nil || s.embedder == nil {
		writeError(w, http.StatusServiceUnavailable, "search unavailable")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	k, err := parseTopK(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	project, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	emb, err := s.embedder.Embed(r.Context(), q)
	if err != nil {
		s.logger.Error("embed query failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to embed query")
		return
	}
	results, err := s.vectors.Search(r.Context(), emb, project.ID, k)
	if err != nil {
		s.logger.Error("vector search failed", zap.String("project_id", project.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []vector.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// getTranslation handles GET /v1/translations?resource_id=&language=.
func (s *Server) getTranslation(w http.ResponseWriter, r *http.Request) {
	resourceID := strings.TrimSpace(r.URL.Query().Get("resource_id"))
	if resourceID == "" {
		writeError(w, http.StatusBadRequest, "resource_id is required")
		return
	}
	lang := s.opts.DefaultLanguage
	if raw := r.URL.Query().Get("language"); raw != "" {
		code, err := language.Validate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		lang = code
	}
	tr, err := s.store.GetTranslation(r.Context(), resourceID, lang)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "translation not found")
			return
		}
		s.logger.Error("get translation failed", zap.String("resource_id", resourceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load translation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"translation": tr})
}

func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) (store.Project, bool) {
	id := chi.URLParam(r, "project_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return store.Project{}, false
	}
	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return store.Project{}, false
		}
		s.logger.Error("get project failed", zap.String("project_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load project")
		return store.Project{}, false
	}
	return project, true
}

func parseTopK(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("k")
	if raw == "" {
		return vector.DefaultTopK, nil
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k <= 0 {
		return 0, errors.New("invalid k")
	}
	return min(k, maxSearchResults), nil
}
