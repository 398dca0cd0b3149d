package httpapi

import (
	"net/http"

	"musiclist/internal/auth"
)

type listNameRequest struct {
	Name string `json:"name"`
}

type visibilityRequest struct {
	Public *bool `json:"public"`
}

func (s *Server) handleMyLists(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	if err := auth.Require(p); err != nil {
		writeError(w, r, err)
		return
	}
	lists, err := s.lists.OwnedBy(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": lists})
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req listNameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := s.lists.Create(r.Context(), principalFrom(r.Context()), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleListDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := s.lists.Detail(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleRenameList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req listNameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.lists.Rename(r.Context(), principalFrom(r.Context()), id, req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req visibilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Public == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "public is required", Code: "empty_input"})
		return
	}
	if err := s.lists.SetVisibility(r.Context(), principalFrom(r.Context()), id, *req.Public); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.lists.Delete(r.Context(), principalFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddListSong(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	songID, ok := pathID(w, r, "songID")
	if !ok {
		return
	}
	if err := s.lists.AddSong(r.Context(), principalFrom(r.Context()), songID, listID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveListSong(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	songID, ok := pathID(w, r, "songID")
	if !ok {
		return
	}
	if err := s.lists.RemoveSong(r.Context(), principalFrom(r.Context()), songID, listID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleListFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := s.favorites.Toggle(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{Result: result})
}

func (s *Server) handleUserLists(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lists, err := s.favorites.ListsOf(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": lists})
}

func (s *Server) handleFavoriteLists(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lists, err := s.favorites.FavoritedLists(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lists": lists})
}
