package videos

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bkoval/fitpulse/internal/telemetry/tracing"
	"github.com/bkoval/fitpulse/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=videos_test

type videosProvider interface {
	ByCategory(ctx context.Context, category string, count int) ([]Video, error)
	Trending(ctx context.Context, count int) ([]Video, error)
	Newest(ctx context.Context, count int) ([]Video, error)
}

const (
	defaultListCount = 20
	maxListCount     = 50
)

type Handler struct {
	provider videosProvider
}

func NewHandler(provider videosProvider) *Handler {
	return &Handler{
		provider: provider,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/videos/trending", handler.HandleTrending).Methods("GET", "OPTIONS").Name("videos-trending")
	router.HandleFunc("/videos/newest", handler.HandleNewest).Methods("GET", "OPTIONS").Name("videos-newest")
	router.HandleFunc("/videos/category/{category}", handler.HandleByCategory).Methods("GET", "OPTIONS").Name("videos-by-category")
}

func (handler *Handler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.videos.trending")
	defer span.End()

	videos, err := handler.provider.Trending(ctx, listCount(r))
	if err != nil {
		// catalog hiccups never reach the app, it just sees an empty shelf
		log.Errorf("get trending videos: %s", err)
		videos = nil
	}
	writeVideos(w, videos)
}

func (handler *Handler) HandleNewest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.videos.newest")
	defer span.End()

	videos, err := handler.provider.Newest(ctx, listCount(r))
	if err != nil {
		log.Errorf("get newest videos: %s", err)
		videos = nil
	}
	writeVideos(w, videos)
}

func (handler *Handler) HandleByCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.videos.byCategory")
	defer span.End()

	category := mux.Vars(r)["category"]
	if category == "" {
		http.Error(w, "error, category empty", http.StatusBadRequest)
		return
	}

	videos, err := handler.provider.ByCategory(ctx, category, listCount(r))
	if err != nil {
		log.Errorf("get videos for category [%s]: %s", category, err)
		videos = nil
	}
	writeVideos(w, videos)
}

func listCount(r *http.Request) int {
	countParam := r.URL.Query().Get("count")
	if countParam == "" {
		return defaultListCount
	}
	count, err := strconv.Atoi(countParam)
	if err != nil || count < 1 {
		return defaultListCount
	}
	if count > maxListCount {
		return maxListCount
	}
	return count
}

func writeVideos(w http.ResponseWriter, videos []Video) {
	if videos == nil {
		videos = make([]Video, 0)
	}
	videosJson, err := json.Marshal(videos)
	if err != nil {
		log.Errorf("failed to marshal videos: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, videosJson)
}
