// Package httpapi exposes the musiclist services as a JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"musiclist/internal/apperr"
	"musiclist/internal/auth"
	"musiclist/internal/logging"
	"musiclist/internal/models"
)

// UserService captures the identity operations needed by the HTTP handlers.
type UserService interface {
	Register(ctx context.Context, username, password, confirm string) (int64, error)
	Authenticate(ctx context.Context, username, password string) (auth.Principal, error)
	ChangePassword(ctx context.Context, p auth.Principal, password, confirm string) error
	ChangeUsername(ctx context.Context, p auth.Principal, username string) error
	Profile(ctx context.Context, userID int64) (models.UserView, error)
	Principal(ctx context.Context, userID int64) (auth.Principal, error)
}

// SongService describes catalog workflows.
type SongService interface {
	Search(ctx context.Context, keyword string) ([]models.Song, error)
	ListPage(ctx context.Context, page models.PageRequest) (models.Page[models.Song], error)
	Add(ctx context.Context, name, artist, link string) (int64, error)
	Get(ctx context.Context, id int64) (models.Song, error)
	Detail(ctx context.Context, viewer auth.Principal, id int64) (models.SongDetail, error)
}

// ListService coordinates list operations.
type ListService interface {
	Create(ctx context.Context, p auth.Principal, name string) (int64, error)
	Rename(ctx context.Context, p auth.Principal, listID int64, name string) error
	SetVisibility(ctx context.Context, p auth.Principal, listID int64, public bool) error
	Delete(ctx context.Context, p auth.Principal, listID int64) error
	AddSong(ctx context.Context, p auth.Principal, songID, listID int64) error
	RemoveSong(ctx context.Context, p auth.Principal, songID, listID int64) error
	Detail(ctx context.Context, viewer auth.Principal, listID int64) (models.ListDetail, error)
	OwnedBy(ctx context.Context, userID int64) ([]models.List, error)
}

// FeedService coordinates messages and comments.
type FeedService interface {
	Post(ctx context.Context, p auth.Principal, title, body string, listID int64) (int64, error)
	Feed(ctx context.Context, page models.PageRequest) (models.Page[models.MessageSummary], error)
	UserFeed(ctx context.Context, userID int64, page models.PageRequest) (models.Page[models.MessageSummary], error)
	Detail(ctx context.Context, viewer auth.Principal, messageID int64, comments models.PageRequest) (models.MessageDetail, error)
	Comment(ctx context.Context, p auth.Principal, messageID int64, body string) (int64, error)
	DeleteMessage(ctx context.Context, p auth.Principal, messageID int64) error
	DeleteComment(ctx context.Context, p auth.Principal, commentID int64) error
	ToggleFavorite(ctx context.Context, p auth.Principal, messageID int64) (models.ToggleResult, error)
	FavoritedBy(ctx context.Context, userID int64, page models.PageRequest) (models.Page[models.MessageSummary], error)
	UserComments(ctx context.Context, userID int64, page models.PageRequest) (models.Page[models.CommentSummary], error)
}

// FavoritesService coordinates list favorites and cross-user list discovery.
type FavoritesService interface {
	Toggle(ctx context.Context, p auth.Principal, listID int64) (models.ToggleResult, error)
	FavoritedLists(ctx context.Context, userID int64) ([]models.FavoritedList, error)
	ListsOf(ctx context.Context, viewer auth.Principal, userID int64) ([]models.List, error)
}

// Tokens issues and verifies bearer tokens.
type Tokens interface {
	Issue(p auth.Principal) (string, error)
	Parse(token string) (auth.Principal, error)
}

// Services groups the application services served over HTTP.
type Services struct {
	Users     UserService
	Songs     SongService
	Lists     ListService
	Feed      FeedService
	Favorites FavoritesService
}

// Config tunes the HTTP surface.
type Config struct {
	AllowedOrigins []string
	PageSize       int
	// Health reports storage reachability for /health. Nil means always healthy.
	Health func(ctx context.Context) error
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users     UserService
	songs     SongService
	lists     ListService
	feed      FeedService
	favorites FavoritesService
	tokens    Tokens
	cfg       Config
}

// New configures a Server.
func New(svc Services, tokens Tokens, cfg Config) *Server {
	if cfg.PageSize < 1 {
		cfg.PageSize = models.DefaultPageSize
	}
	return &Server{
		users:     svc.Users,
		songs:     svc.Songs,
		lists:     svc.Lists,
		feed:      svc.Feed,
		favorites: svc.Favorites,
		tokens:    tokens,
		cfg:       cfg,
	}
}

// Routes exposes the API.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Code: "method_not_allowed"})
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Code: "not_found"})
	})

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	api.HandleFunc("/me/password", s.handleChangePassword).Methods(http.MethodPut)
	api.HandleFunc("/me/username", s.handleChangeUsername).Methods(http.MethodPut)
	api.HandleFunc("/me/lists", s.handleMyLists).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}", s.handleProfile).Methods(http.MethodGet)

	api.HandleFunc("/songs", s.handleSongPage).Methods(http.MethodGet)
	api.HandleFunc("/songs", s.handleAddSong).Methods(http.MethodPost)
	api.HandleFunc("/songs/search", s.handleSongSearch).Methods(http.MethodGet)
	api.HandleFunc("/songs/{id:[0-9]+}", s.handleSong).Methods(http.MethodGet)

	api.HandleFunc("/lists", s.handleCreateList).Methods(http.MethodPost)
	api.HandleFunc("/lists/{id:[0-9]+}", s.handleListDetail).Methods(http.MethodGet)
	api.HandleFunc("/lists/{id:[0-9]+}", s.handleRenameList).Methods(http.MethodPatch)
	api.HandleFunc("/lists/{id:[0-9]+}", s.handleDeleteList).Methods(http.MethodDelete)
	api.HandleFunc("/lists/{id:[0-9]+}/visibility", s.handleListVisibility).Methods(http.MethodPut)
	api.HandleFunc("/lists/{id:[0-9]+}/songs/{songID:[0-9]+}", s.handleAddListSong).Methods(http.MethodPut)
	api.HandleFunc("/lists/{id:[0-9]+}/songs/{songID:[0-9]+}", s.handleRemoveListSong).Methods(http.MethodDelete)
	api.HandleFunc("/lists/{id:[0-9]+}/favorite", s.handleToggleListFavorite).Methods(http.MethodPost)
	api.HandleFunc("/users/{id:[0-9]+}/lists", s.handleUserLists).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}/favorite-lists", s.handleFavoriteLists).Methods(http.MethodGet)

	api.HandleFunc("/messages", s.handleFeed).Methods(http.MethodGet)
	api.HandleFunc("/messages", s.handlePostMessage).Methods(http.MethodPost)
	api.HandleFunc("/messages/{id:[0-9]+}", s.handleMessageDetail).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id:[0-9]+}", s.handleDeleteMessage).Methods(http.MethodDelete)
	api.HandleFunc("/messages/{id:[0-9]+}/comments", s.handlePostComment).Methods(http.MethodPost)
	api.HandleFunc("/messages/{id:[0-9]+}/favorite", s.handleToggleMessageFavorite).Methods(http.MethodPost)
	api.HandleFunc("/comments/{id:[0-9]+}", s.handleDeleteComment).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id:[0-9]+}/messages", s.handleUserFeed).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}/comments", s.handleUserComments).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}/favorite-messages", s.handleFavoriteMessages).Methods(http.MethodGet)

	return recovery(requestLogging(cors(s.cfg.AllowedOrigins, s.authenticate(router))))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Health != nil {
		if err := s.cfg.Health(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type toggleResponse struct {
	Result models.ToggleResult `json:"result"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindNotOwner, apperr.KindNotVisible:
		return http.StatusForbidden
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindDuplicate, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service failure onto a status code. Internal details are logged, not returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = apperr.KindUnavailable
	}
	status := statusFor(kind)

	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	var e *apperr.Error
	if errors.As(err, &e) {
		writeJSON(w, status, errorResponse{Error: e.Msg, Code: e.Code})
		return
	}
	if status == http.StatusServiceUnavailable {
		writeJSON(w, status, errorResponse{Error: apperr.ErrUnavailable.Msg, Code: apperr.ErrUnavailable.Code})
		return
	}
	writeJSON(w, status, errorResponse{Error: "internal error", Code: "internal"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload", Code: "invalid_json"})
		return false
	}
	return true
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// pathID reads a numeric route variable. Routes constrain it to digits.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid " + name, Code: "invalid_id"})
		return 0, false
	}
	return id, true
}

// pageRequest reads ?page= and ?size=, falling back to the configured page size.
func (s *Server) pageRequest(r *http.Request) models.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	if size < 1 || size > 100 {
		size = s.cfg.PageSize
	}
	return models.PageRequest{Page: page, Size: size}.Normalize()
}
