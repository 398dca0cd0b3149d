package httpapi

import (
	"net/http"

	"musiclist/internal/auth"
)

type songRequest struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Link   string `json:"link"`
}

func (s *Server) handleSongPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.songs.ListPage(r.Context(), s.pageRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSongSearch(w http.ResponseWriter, r *http.Request) {
	songs, err := s.songs.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"songs": songs})
}

// handleAddSong requires a signed-in caller even though the catalog is shared.
func (s *Server) handleAddSong(w http.ResponseWriter, r *http.Request) {
	if err := auth.Require(principalFrom(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	var req songRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := s.songs.Add(r.Context(), req.Name, req.Artist, req.Link)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// handleSong includes the caller's own lists so the client can offer "add to list".
func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	detail, err := s.songs.Detail(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
