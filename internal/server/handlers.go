package server

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/thoreau/internal/comments"
	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/internal/pipeline"
	"github.com/hyperjump/thoreau/internal/storage"
	"github.com/hyperjump/thoreau/pkg/utils"
	"go.uber.org/zap"
)

// newRequest starts the rendering state of one HTTP request.
func (s *Server) newRequest(admin bool) *pipeline.Request {
	req := pipeline.NewRequest(s.resolver.NewMemo())
	req.IsAdmin = admin
	return req
}

func (s *Server) pageSize() int {
	if n := s.config.Search.DefaultLimit; n > 0 {
		return n
	}
	return 10
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := s.storage.ListDocuments(ctx, 0, 1000)
	if err != nil {
		s.logger.Error("listing documents failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	hidden := s.newRequest(false).Pages.ExcludeFromNav(ctx, nil)
	var nav []*models.Document
	for _, doc := range docs {
		if doc.PostType != models.PostTypePage || utils.ContainsID(hidden, doc.ID) {
			continue
		}
		nav = append(nav, doc)
	}
	s.renderHTML(w, http.StatusOK, "index", nav)
}

func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	phrase := strings.TrimSpace(r.URL.Query().Get("s"))
	view := searchView{Query: phrase}
	if phrase == "" {
		s.renderHTML(w, http.StatusOK, "search", view)
		return
	}
	paged, _ := strconv.Atoi(r.URL.Query().Get("paged"))
	if paged < 1 {
		paged = 1
	}
	limit := s.pageSize()
	req := s.newRequest(false)
	req.Query = &models.SearchQuery{Phrase: phrase, Limit: limit, Offset: (paged - 1) * limit}
	s.logger.Debug("search page request", zap.String("request_id", req.ID), zap.String("phrase", phrase), zap.Int("paged", paged))

	response, err := s.engine.Search(r.Context(), req)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	view.Results = response.Results
	view.Suggestions = response.Suggestions
	if paged > 1 {
		view.Newer = pagedURL(phrase, paged-1)
	}
	if paged*limit < response.Total {
		view.Older = pagedURL(phrase, paged+1)
	}
	s.renderHTML(w, http.StatusOK, "search", view)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := s.storage.GetDocumentBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, storage.ErrNotFound) {
		s.renderHTML(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err != nil {
		s.logger.Error("page lookup failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	req := s.newRequest(false)
	if phrase := strings.TrimSpace(r.URL.Query().Get("s")); phrase != "" {
		req.Query = &models.SearchQuery{Phrase: phrase}
	}
	role := req.Pages.RoleOf(ctx, doc)
	view := pageView{ID: doc.ID, Plain: doc.Title}
	var highlighted bool

	if kind, ok := comments.KindForRole(role); ok {
		content, err := s.aggregator.PageContent(ctx, kind, s.config.Pages.PrimaryPostType)
		if err != nil {
			s.logger.Error("comment listing failed", zap.String("kind", string(kind)), zap.Error(err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		view.Title = html.EscapeString(doc.Title)
		view.Content = content
	} else {
		page := s.engine.RenderPage(ctx, req, doc)
		view.Title = page.Title
		view.Content = page.Content
		highlighted = page.Highlighted
		sidebar, err := s.aggregator.ActivitySidebar(ctx, req.Pages, doc)
		if err != nil {
			s.logger.Warn("activity sidebar failed", zap.Int64("document_id", doc.ID), zap.Error(err))
		}
		view.Sidebar = sidebar
	}
	s.metrics.PageView(role.String(), highlighted)
	s.logger.Debug("page request",
		zap.String("request_id", req.ID),
		zap.String("slug", doc.Slug),
		zap.String("role", role.String()),
		zap.Bool("highlighted", highlighted))
	s.renderHTML(w, http.StatusOK, "page", view)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := s.newRequest(false)
	req.Query = &query
	s.logger.Debug("search request", zap.String("request_id", req.ID), zap.String("phrase", query.Phrase), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), req)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleCommentListing(w http.ResponseWriter, r *http.Request) {
	kind, err := comments.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	postType := r.URL.Query().Get("type")
	if postType == "" {
		postType = models.PostTypePage
	}
	if postType != models.PostTypePage && postType != models.PostTypePost {
		s.respondError(w, http.StatusBadRequest, "type must be page or post")
		return
	}
	groups, err := s.aggregator.Listing(r.Context(), kind, postType)
	if err != nil {
		s.logger.Error("comment listing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if groups == nil {
		groups = []comments.Group{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"kind":      kind,
		"post_type": postType,
		"groups":    groups,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	docs, err := s.storage.ListDocuments(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("listing documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "offset": offset, "limit": limit})
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(input.Title) == "" && strings.TrimSpace(input.Slug) == "" {
		s.respondError(w, http.StatusBadRequest, "title or slug is required")
		return
	}
	if input.PostType != "" && input.PostType != models.PostTypePage && input.PostType != models.PostTypePost {
		s.respondError(w, http.StatusBadRequest, "post_type must be page or post")
		return
	}
	s.logger.Debug("save document request", zap.Int64("id", input.ID), zap.String("title", input.Title))
	doc, err := s.importer.SaveDocument(r.Context(), &input)
	if err != nil {
		s.logger.Error("saving document failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		s.respondStorageError(w, err, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	s.logger.Debug("delete document request", zap.Int64("id", id))
	if err := s.importer.DeleteDocument(r.Context(), id); err != nil {
		s.respondStorageError(w, err, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSaveComment(w http.ResponseWriter, r *http.Request) {
	var input models.CommentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ctx := r.Context()
	doc, err := s.storage.GetDocument(ctx, input.PostID)
	if err != nil {
		s.respondStorageError(w, err, "post not found")
		return
	}
	if !s.newRequest(true).Pages.IsCommentable(ctx, doc) {
		s.respondError(w, http.StatusUnprocessableEntity, "comments are closed on this page")
		return
	}
	s.logger.Debug("save comment request", zap.Int64("post_id", input.PostID), zap.String("author", input.Author))
	comment, err := s.storage.SaveComment(ctx, &input)
	if err != nil {
		s.logger.Error("saving comment failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleGetComment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	comment, err := s.storage.GetComment(r.Context(), id)
	if err != nil {
		s.respondStorageError(w, err, "comment not found")
		return
	}
	s.respondJSON(w, http.StatusOK, comment)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.idParam(w, r)
	if !ok {
		return
	}
	s.logger.Debug("delete comment request", zap.Int64("id", id))
	if err := s.storage.DeleteComment(r.Context(), id); err != nil {
		s.respondStorageError(w, err, "comment not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	n, err := s.importer.Reindex(r.Context())
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "reindexed", "documents": n})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	commentCount, err := s.storage.CountComments(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	memo := s.newRequest(true).Pages
	status := map[string]interface{}{
		"documents":      docCount,
		"comments":       commentCount,
		"featured_pages": nonNil(memo.Featured(ctx)),
		"liked_pages":    nonNil(memo.Liked(ctx)),
	}
	if usage, err := storage.DiskUsage(s.config.Storage.DatabasePath, s.config.Storage.BleveIndexPath); err == nil {
		status["disk_usage"] = usage
		status["disk_usage_bytes"] = usage.Total()
	} else {
		s.logger.Warn("disk usage failed", zap.Error(err))
	}
	if s.watch != nil {
		status["watched_directories"] = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) respondStorageError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, notFound)
		return
	}
	s.logger.Error("storage request failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
