package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/user/cineparty-back/internal/cache"
	"github.com/user/cineparty-back/internal/catalog"
)

const (
	catalogRateLimit  = 60
	catalogRateWindow = time.Minute
)

// CatalogHandler proxies TMDB lookups with a redis cache in front.
type CatalogHandler struct {
	tmdb  *catalog.TMDBClient
	cache *cache.RedisCache
}

func NewCatalogHandler(tmdb *catalog.TMDBClient, redisCache *cache.RedisCache) *CatalogHandler {
	return &CatalogHandler{tmdb: tmdb, cache: redisCache}
}

func (h *CatalogHandler) Category(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := h.mediaType(w, r)
	if !ok {
		return
	}
	category := r.PathValue("category")

	h.serve(w, r, "category:"+mediaType+":"+category, func() (json.RawMessage, error) {
		return h.tmdb.Category(r.Context(), mediaType, category)
	})
}

func (h *CatalogHandler) Details(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := h.mediaTypeAndID(w, r)
	if !ok {
		return
	}

	h.serve(w, r, "details:"+mediaType+":"+strconv.FormatInt(id, 10), func() (json.RawMessage, error) {
		return h.tmdb.Details(r.Context(), mediaType, id)
	})
}

func (h *CatalogHandler) Videos(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := h.mediaTypeAndID(w, r)
	if !ok {
		return
	}

	h.serve(w, r, "videos:"+mediaType+":"+strconv.FormatInt(id, 10), func() (json.RawMessage, error) {
		return h.tmdb.Videos(r.Context(), mediaType, id)
	})
}

func (h *CatalogHandler) Credits(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := h.mediaTypeAndID(w, r)
	if !ok {
		return
	}

	h.serve(w, r, "credits:"+mediaType+":"+strconv.FormatInt(id, 10), func() (json.RawMessage, error) {
		return h.tmdb.Credits(r.Context(), mediaType, id)
	})
}

func (h *CatalogHandler) Similar(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := h.mediaTypeAndID(w, r)
	if !ok {
		return
	}

	h.serve(w, r, "similar:"+mediaType+":"+strconv.FormatInt(id, 10), func() (json.RawMessage, error) {
		return h.tmdb.Similar(r.Context(), mediaType, id)
	})
}

func (h *CatalogHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := h.mediaTypeAndID(w, r)
	if !ok {
		return
	}

	h.serve(w, r, "recommendations:"+mediaType+":"+strconv.FormatInt(id, 10), func() (json.RawMessage, error) {
		return h.tmdb.Recommendations(r.Context(), mediaType, id)
	})
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Missing query")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	// Search results are not cached: the keyspace is unbounded.
	if !h.allow(w, r) {
		return
	}

	data, err := h.tmdb.SearchMulti(r.Context(), query, page)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to search")
		return
	}
	respondRaw(w, http.StatusOK, data)
}

func (h *CatalogHandler) serve(w http.ResponseWriter, r *http.Request, key string, fetch func() (json.RawMessage, error)) {
	cacheKey := cache.CatalogKey(key)

	if cached, err := h.cache.Get(r.Context(), cacheKey); err == nil {
		respondRaw(w, http.StatusOK, cached)
		return
	}

	if !h.allow(w, r) {
		return
	}

	data, err := fetch()
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Title not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to fetch catalog data")
		return
	}

	_ = h.cache.Set(r.Context(), cacheKey, data, cache.CatalogTTL)

	respondRaw(w, http.StatusOK, data)
}

// allow enforces the per-user TMDB rate limit. Returns false after
// writing the 429 response.
func (h *CatalogHandler) allow(w http.ResponseWriter, r *http.Request) bool {
	userID, ok := r.Context().Value("userID").(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}

	allowed, err := h.cache.CheckRateLimit(r.Context(), "ratelimit:catalog:"+userID.String(), catalogRateLimit, catalogRateWindow)
	if err != nil {
		// Redis down: fail open.
		return true
	}
	if !allowed {
		respondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return false
	}
	return true
}

func (h *CatalogHandler) mediaType(w http.ResponseWriter, r *http.Request) (string, bool) {
	mediaType := r.PathValue("mediaType")
	if mediaType != "movie" && mediaType != "tv" {
		respondError(w, http.StatusBadRequest, "Invalid media type")
		return "", false
	}
	return mediaType, true
}

func (h *CatalogHandler) mediaTypeAndID(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	mediaType, ok := h.mediaType(w, r)
	if !ok {
		return "", 0, false
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid title ID")
		return "", 0, false
	}
	return mediaType, id, true
}
