package devserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dohr-michael/taskdeck/internal/api"
)

const maxPageSize = 100

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	page, ok := intParam(r, "page", 1, 1, 0)
	if !ok {
		writeInvalid(w, "page", "must be a positive integer")
		return
	}
	limit, ok := intParam(r, "limit", 10, 1, maxPageSize)
	if !ok {
		writeInvalid(w, "limit", "must be between 1 and 100")
		return
	}
	important, ok := boolParam(r, "important")
	if !ok {
		writeInvalid(w, "important", "must be a boolean")
		return
	}
	priorityOrder, ok := boolParam(r, "use_priority_queue")
	if !ok {
		writeInvalid(w, "use_priority_queue", "must be a boolean")
		return
	}

	q := r.URL.Query()
	f := taskFilter{query: q.Get("q"), status: api.TaskStatus(q.Get("status")), important: important}
	if f.status != "" && !f.status.Valid() {
		writeInvalid(w, "status", "must be one of pending, in_progress, completed, cancelled")
		return
	}
	if raw := q.Get("category_id"); raw != "" {
		id, ok := intParam(r, "category_id", 0, 1, 0)
		if !ok {
			writeInvalid(w, "category_id", "must be a positive integer")
			return
		}
		cid := int64(id)
		f.categoryID = &cid
	}

	writeJSON(w, http.StatusOK, s.store.listTasks(userID(r), f, page, limit, q.Get("sort"), priorityOrder != nil && *priorityOrder))
}

func (s *Server) handlePriorityTasks(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", 10, 1, 50)
	if !ok {
		writeInvalid(w, "limit", "must be between 1 and 50")
		return
	}
	writeJSON(w, http.StatusOK, s.store.priorityTasks(userID(r), limit))
}

func (s *Server) handleUpcomingTasks(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", 10, 1, 50)
	if !ok {
		writeInvalid(w, "limit", "must be between 1 and 50")
		return
	}
	days, ok := intParam(r, "days_threshold", 3, 1, 0)
	if !ok {
		writeInvalid(w, "days_threshold", "must be a positive integer")
		return
	}
	writeJSON(w, http.StatusOK, s.store.upcomingTasks(userID(r), limit, days))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in api.TaskInput
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in.Title = strings.TrimSpace(in.Title)
	// Past due dates are rejected by clients, not by the server.
	check := in
	check.DueDate = nil
	if rejectInvalid(w, api.ValidateTaskInput(check)) {
		return
	}
	if in.CategoryID != nil {
		if _, err := s.store.getCategory(userID(r), *in.CategoryID); err != nil {
			writeStoreError(w, err, "category")
			return
		}
	}
	task := s.store.createTask(userID(r), in)
	w.Header().Set("Location", expandID(r.URL.Path, task.ID))
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "task not found")
		return
	}
	task, err := s.store.getTask(userID(r), id)
	if err != nil {
		writeStoreError(w, err, "task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "task not found")
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid body")
		return
	}
	var p taskPatch
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&p.TaskUpdate); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p.present = make(map[string]bool, len(keys))
	for k := range keys {
		p.present[k] = true
	}

	check := p.TaskUpdate
	check.DueDate = nil
	if rejectInvalid(w, api.ValidateTaskUpdate(check)) {
		return
	}
	if p.CategoryID != nil {
		if _, err := s.store.getCategory(userID(r), *p.CategoryID); err != nil {
			writeStoreError(w, err, "category")
			return
		}
	}

	task, err := s.store.updateTask(userID(r), id, p)
	if err != nil {
		writeStoreError(w, err, "task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "task not found")
		return
	}
	if err := s.store.deleteTask(userID(r), id); err != nil {
		writeStoreError(w, err, "task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- categories ---

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.store.listCategories(userID(r))
	writeJSON(w, http.StatusOK, api.CategoryList{Categories: cats, Total: len(cats)})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in api.CategoryInput
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	in = api.NormalizeCategoryInput(in)
	if rejectInvalid(w, api.ValidateCategoryInput(in)) {
		return
	}
	cat, err := s.store.createCategory(userID(r), in)
	if err != nil {
		writeStoreError(w, err, "category")
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "category not found")
		return
	}
	cat, err := s.store.getCategory(userID(r), id)
	if err != nil {
		writeStoreError(w, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "category not found")
		return
	}
	var up api.CategoryUpdate
	if err := decodeBody(r, &up); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if rejectInvalid(w, api.ValidateCategoryUpdate(up)) {
		return
	}
	cat, err := s.store.updateCategory(userID(r), id, up)
	if err != nil {
		writeStoreError(w, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "category not found")
		return
	}
	if err := s.store.deleteCategory(userID(r), id); err != nil {
		writeStoreError(w, err, "category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCategoryTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "category not found")
		return
	}
	out, err := s.store.categoryTasks(userID(r), id)
	if err != nil {
		writeStoreError(w, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// --- notifications ---

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	page, ok := intParam(r, "page", 1, 1, 0)
	if !ok {
		writeInvalid(w, "page", "must be a positive integer")
		return
	}
	limit, ok := intParam(r, "limit", 10, 1, 50)
	if !ok {
		writeInvalid(w, "limit", "must be between 1 and 50")
		return
	}
	isRead, ok := boolParam(r, "is_read")
	if !ok {
		writeInvalid(w, "is_read", "must be a boolean")
		return
	}
	writeJSON(w, http.StatusOK, s.store.listNotifications(userID(r), page, limit, isRead))
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "notification not found")
		return
	}
	n, err := s.store.markRead(userID(r), id)
	if err != nil {
		writeStoreError(w, err, "notification")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	count := s.store.markAllRead(userID(r))
	writeJSON(w, http.StatusOK, map[string]any{"message": "notifications marked as read", "count": count})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeDetail(w, http.StatusNotFound, "notification not found")
		return
	}
	if err := s.store.deleteNotification(userID(r), id); err != nil {
		writeStoreError(w, err, "notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rejectInvalid writes a 422 for a validation error and reports whether it did.
func rejectInvalid(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	var verr *api.ValidationError
	if errors.As(err, &verr) {
		writeInvalid(w, verr.Field, verr.Reason)
	} else {
		writeDetail(w, http.StatusBadRequest, err.Error())
	}
	return true
}

func expandID(base string, id int64) string {
	return strings.TrimRight(base, "/") + "/" + strconv.FormatInt(id, 10)
}
