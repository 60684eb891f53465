// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"contribforge/internal/badges"
	apperrors "contribforge/internal/errors"
	"contribforge/internal/github"
	"contribforge/internal/model"
	"contribforge/internal/store"
)

// SyncService triggers a contribution sync for one owner.
type SyncService interface {
	Sync(ctx context.Context, userID string) (model.SyncSummary, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	db     store.Querier
	syncer SyncService
	gh     *github.Client
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(db store.Querier, syncer SyncService, gh *github.Client, logger *slog.Logger) http.Handler {
	h := &Handler{
		db:     db,
		syncer: syncer,
		gh:     gh,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)

	r.Route("/v1", func(r chi.Router) {
		// Public discovery and portfolio reads
		r.Get("/search/repos", h.searchRepos)
		r.Get("/search/issues", h.searchIssues)
		r.Get("/users/{username}/portfolio", h.getPortfolio)

		// Owner-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Post("/sync", h.syncContributions)
			r.Get("/sync/status", h.getSyncStatus)
			r.Get("/contributions", h.listContributions)
			r.Get("/activity", h.listActivity)
			r.Get("/badges", h.getBadges)

			r.Get("/profile", h.getProfile)
			r.Put("/profile", h.updateProfile)

			r.Get("/bookmarks", h.listBookmarks)
			r.Get("/bookmarks/check", h.checkBookmark)
			r.Post("/bookmarks", h.createBookmark)
			r.Delete("/bookmarks/{id}", h.deleteBookmark)
		})
	})

	return r
}

type ctxKey int

const userIDKey ctxKey = 0

// requireAuth resolves the Bearer token to a user id before any handler
// runs; a missing or unknown credential is rejected here, untouched sync
// status included.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			authErr := &apperrors.AuthenticationError{Reason: "Missing or malformed Authorization header"}
			respondWithError(w, http.StatusUnauthorized, authErr.Error())
			return
		}

		userID, err := h.db.GetUserIDByToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				authErr := &apperrors.AuthenticationError{Reason: "Invalid credential"}
				respondWithError(w, http.StatusUnauthorized, authErr.Error())
				return
			}
			h.logger.Error("Failed to resolve credential", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// syncContributions triggers a sync run for the caller.
// POST /v1/sync
func (h *Handler) syncContributions(w http.ResponseWriter, r *http.Request) {
	summary, err := h.syncer.Sync(r.Context(), userID(r))
	if err != nil {
		var cfgErr *apperrors.ConfigurationError
		var srcErr *github.SourceFetchError
		switch {
		case errors.As(err, &cfgErr):
			respondWithError(w, http.StatusBadRequest, cfgErr.Error())
		case errors.As(err, &srcErr):
			respondWithError(w, http.StatusBadGateway, srcErr.Error())
		default:
			h.logger.Error("Sync failed", "user_id", userID(r), "error", err)
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// getSyncStatus returns the caller's sync state; absent rows read as idle.
// GET /v1/sync/status
func (h *Handler) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.db.GetSyncStatus(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("Failed to get sync status", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// listContributions returns the caller's contributions, newest first.
// GET /v1/contributions?kind=pull_request|issue|commit
func (h *Handler) listContributions(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind != "" && !model.ValidKind(kind) {
		respondWithError(w, http.StatusBadRequest, "Invalid 'kind' parameter")
		return
	}

	contributions, err := h.db.ListContributions(r.Context(), store.ListContributionsParams{
		UserID: userID(r),
		Kind:   model.Kind(kind),
	})
	if err != nil {
		h.logger.Error("Failed to list contributions", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if contributions == nil {
		contributions = []model.Contribution{}
	}
	respondWithJSON(w, http.StatusOK, contributions)
}

// listActivity returns the caller's daily histogram, oldest first.
// GET /v1/activity
func (h *Handler) listActivity(w http.ResponseWriter, r *http.Request) {
	days, err := h.db.ListActivityDays(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("Failed to list activity", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if days == nil {
		days = []model.ActivityDay{}
	}
	respondWithJSON(w, http.StatusOK, days)
}

// getBadges evaluates achievements over the caller's full contribution set.
// GET /v1/badges
func (h *Handler) getBadges(w http.ResponseWriter, r *http.Request) {
	contributions, err := h.db.ListContributions(r.Context(), store.ListContributionsParams{UserID: userID(r)})
	if err != nil {
		h.logger.Error("Failed to list contributions for badges", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, badges.Evaluate(contributions))
}

// getProfile returns the caller's profile.
// GET /v1/profile
func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.db.GetProfile(r.Context(), userID(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		h.logger.Error("Failed to get profile", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	DisplayName    *string `json:"display_name"`
	GithubUsername *string `json:"github_username"`
	AvatarURL      *string `json:"avatar_url"`
}

// updateProfile replaces the caller-editable profile fields.
// PUT /v1/profile
func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.db.UpdateProfile(r.Context(), store.UpdateProfileParams{
		ID:             userID(r),
		DisplayName:    req.DisplayName,
		GithubUsername: req.GithubUsername,
		AvatarURL:      req.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		h.logger.Error("Failed to update profile", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

type portfolioResponse struct {
	Profile       model.Profile        `json:"profile"`
	Contributions []model.Contribution `json:"contributions"`
	Activity      []model.ActivityDay  `json:"activity"`
	Badges        []badges.Badge       `json:"badges"`
}

// getPortfolio is the public profile read model: profile, contributions,
// histogram and badges for a linked GitHub handle.
// GET /v1/users/{username}/portfolio
func (h *Handler) getPortfolio(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	profile, err := h.db.GetProfileByGithubUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		h.logger.Error("Failed to get profile", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	contributions, err := h.db.ListContributions(r.Context(), store.ListContributionsParams{UserID: profile.ID})
	if err != nil {
		h.logger.Error("Failed to list contributions", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	activity, err := h.db.ListActivityDays(r.Context(), profile.ID)
	if err != nil {
		h.logger.Error("Failed to list activity", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if contributions == nil {
		contributions = []model.Contribution{}
	}
	if activity == nil {
		activity = []model.ActivityDay{}
	}

	respondWithJSON(w, http.StatusOK, portfolioResponse{
		Profile:       profile,
		Contributions: contributions,
		Activity:      activity,
		Badges:        badges.Evaluate(contributions),
	})
}

func searchFiltersFromQuery(r *http.Request) github.SearchFilters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return github.SearchFilters{
		Query:          q.Get("q"),
		Language:       q.Get("language"),
		Sort:           q.Get("sort"),
		GoodFirstIssue: q.Get("good_first_issue") == "true",
		Page:           page,
		PerPage:        perPage,
	}
}

// searchRepos proxies the repository discovery search.
// GET /v1/search/repos?q=&language=&sort=&good_first_issue=&page=&per_page=
func (h *Handler) searchRepos(w http.ResponseWriter, r *http.Request) {
	res, err := h.gh.SearchRepositories(r.Context(), searchFiltersFromQuery(r))
	if err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// searchIssues proxies the good-first-issue discovery search.
// GET /v1/search/issues?q=&language=&page=&per_page=
func (h *Handler) searchIssues(w http.ResponseWriter, r *http.Request) {
	res, err := h.gh.SearchGoodFirstIssues(r.Context(), searchFiltersFromQuery(r))
	if err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

type createBookmarkRequest struct {
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Kind        string        `json:"kind"`
	Description *string       `json:"description"`
	Labels      []model.Label `json:"labels"`
	Language    *string       `json:"language"`
	Stars       *int          `json:"stars"`
	Owner       *string       `json:"owner"`
	RepoName    *string       `json:"repo_name"`
	IssueNumber *int          `json:"issue_number"`
}

// createBookmark saves a repository or issue for the caller.
// POST /v1/bookmarks
func (h *Handler) createBookmark(w http.ResponseWriter, r *http.Request) {
	var req createBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.URL == "" {
		respondWithError(w, http.StatusBadRequest, "title and url are required")
		return
	}
	if req.Kind != model.BookmarkRepo && req.Kind != model.BookmarkIssue {
		respondWithError(w, http.StatusBadRequest, "kind must be 'repo' or 'issue'")
		return
	}

	bookmark, err := h.db.CreateBookmark(r.Context(), store.CreateBookmarkParams{
		UserID:      userID(r),
		Title:       req.Title,
		URL:         req.URL,
		Kind:        req.Kind,
		Description: req.Description,
		Labels:      req.Labels,
		Language:    req.Language,
		Stars:       req.Stars,
		Owner:       req.Owner,
		RepoName:    req.RepoName,
		IssueNumber: req.IssueNumber,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			respondWithError(w, http.StatusConflict, "Already bookmarked")
			return
		}
		h.logger.Error("Failed to create bookmark", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusCreated, bookmark)
}

// deleteBookmark removes one of the caller's bookmarks.
// DELETE /v1/bookmarks/{id}
func (h *Handler) deleteBookmark(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid bookmark id")
		return
	}

	if err := h.db.DeleteBookmark(r.Context(), userID(r), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Bookmark not found")
			return
		}
		h.logger.Error("Failed to delete bookmark", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listBookmarks returns the caller's bookmarks, newest first.
// GET /v1/bookmarks?kind=repo|issue
func (h *Handler) listBookmarks(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind != "" && kind != model.BookmarkRepo && kind != model.BookmarkIssue {
		respondWithError(w, http.StatusBadRequest, "Invalid 'kind' parameter")
		return
	}

	bookmarks, err := h.db.ListBookmarks(r.Context(), store.ListBookmarksParams{
		UserID: userID(r),
		Kind:   kind,
	})
	if err != nil {
		h.logger.Error("Failed to list bookmarks", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if bookmarks == nil {
		bookmarks = []model.Bookmark{}
	}
	respondWithJSON(w, http.StatusOK, bookmarks)
}

// checkBookmark reports whether a URL is already bookmarked by the caller.
// GET /v1/bookmarks/check?url=
func (h *Handler) checkBookmark(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		respondWithError(w, http.StatusBadRequest, "url is required")
		return
	}

	bookmark, err := h.db.GetBookmarkByURL(r.Context(), userID(r), url)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithJSON(w, http.StatusOK, map[string]any{"bookmarked": false})
			return
		}
		h.logger.Error("Failed to check bookmark", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"bookmarked": true, "id": bookmark.ID})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
