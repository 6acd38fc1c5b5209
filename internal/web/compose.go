package web

import (
	"net/http"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/db"
)

type projectRequest struct {
	Title       string `json:"title"`
	Status      string `json:"status"`
	Key         string `json:"key"`
	BPM         *int   `json:"bpm"`
	Tags        string `json:"tags"`
	Description string `json:"description"`
}

func (req *projectRequest) validate() string {
	if req.Title == "" {
		return "title is required"
	}
	if !slices.Contains(db.ProjectStatuses, req.Status) {
		return "invalid status"
	}
	return ""
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.db.Projects().List(r.Context(), currentUser(r))
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = db.ProjectStatusIdea
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	userID := currentUser(r)
	project := &db.Project{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       req.Title,
		Status:      req.Status,
		Key:         req.Key,
		BPM:         req.BPM,
		Tags:        req.Tags,
		Description: req.Description,
	}
	if err := s.db.Projects().Create(r.Context(), project); err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	if err := s.evaluator.CheckProject(r.Context(), userID, project.Status, true); err != nil {
		s.log.Warn("achievement check failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	respondJSON(w, http.StatusCreated, project)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectID")
	if !ok {
		return
	}
	project, err := s.db.Projects().Get(r.Context(), currentUser(r), projectID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectID")
	if !ok {
		return
	}
	var req projectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	userID := currentUser(r)
	project, err := s.db.Projects().Get(r.Context(), userID, projectID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	statusChanged := project.Status != req.Status
	project.Title = req.Title
	project.Status = req.Status
	project.Key = req.Key
	project.BPM = req.BPM
	project.Tags = req.Tags
	project.Description = req.Description

	if err := s.db.Projects().Update(r.Context(), project); err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	if statusChanged {
		if err := s.evaluator.CheckProject(r.Context(), userID, project.Status, false); err != nil {
			s.log.Warn("achievement check failed", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	respondJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathUUID(w, r, "projectID")
	if !ok {
		return
	}
	if err := s.db.Projects().Delete(r.Context(), currentUser(r), projectID); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedProject loads the project and enforces ownership for memos.
func (s *Server) ownedProject(w http.ResponseWriter, r *http.Request) (*db.Project, bool) {
	projectID, ok := pathUUID(w, r, "projectID")
	if !ok {
		return nil, false
	}
	project, err := s.db.Projects().Get(r.Context(), currentUser(r), projectID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return nil, false
	}
	return project, true
}

func (s *Server) handleListMemos(w http.ResponseWriter, r *http.Request) {
	project, ok := s.ownedProject(w, r)
	if !ok {
		return
	}
	memos, err := s.db.Projects().ListMemos(r.Context(), project.ID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, memos)
}

type memoRequest struct {
	MemoType    string `json:"memo_type"`
	TextContent string `json:"text_content"`
	FilePath    string `json:"file_path"`
}

func (s *Server) handleAppendMemo(w http.ResponseWriter, r *http.Request) {
	project, ok := s.ownedProject(w, r)
	if !ok {
		return
	}
	var req memoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.MemoType == "" {
		req.MemoType = "text"
	}
	switch req.MemoType {
	case "text":
		if req.TextContent == "" {
			respondError(w, http.StatusBadRequest, "text_content is required")
			return
		}
	case "audio", "photo":
		if req.FilePath == "" {
			respondError(w, http.StatusBadRequest, "file_path is required")
			return
		}
	default:
		respondError(w, http.StatusBadRequest, "invalid memo_type")
		return
	}

	memo := &db.Memo{
		ID:          uuid.New(),
		ProjectID:   project.ID,
		MemoType:    req.MemoType,
		TextContent: req.TextContent,
		FilePath:    req.FilePath,
	}
	if err := s.db.Projects().AppendMemo(r.Context(), memo); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, memo)
}
