package videos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bkoval/fitpulse/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	oneMinute          = 60
	catalogCacheExpire = oneMinute * 15
)

// Video is one entry of the workout video catalog.
type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Duration    string `json:"duration"`
	Calories    int    `json:"calories"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	Instructor  string `json:"instructor"`
}

// Client talks to the video catalog API. Responses are cached in-process
// for a short while; the catalog changes rarely and the home screen asks
// for the same lists over and over.
type Client struct {
	cache      *freecache.Cache
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	megabyte := 1024 * 1024
	cacheSize := 10 * megabyte

	return &Client{
		cache:      freecache.NewCache(cacheSize),
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// ByCategory returns up to count videos of the given category.
func (c *Client) ByCategory(ctx context.Context, category string, count int) ([]Video, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "videosClient.byCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category", category))

	return c.getVideos(ctx, fmt.Sprintf("%s/videos?category=%s&count=%d", c.baseURL, category, count))
}

// Trending returns up to count currently trending videos.
func (c *Client) Trending(ctx context.Context, count int) ([]Video, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "videosClient.trending")
	defer span.End()

	return c.getVideos(ctx, fmt.Sprintf("%s/videos/trending?count=%d", c.baseURL, count))
}

// Newest returns up to count most recently published videos.
func (c *Client) Newest(ctx context.Context, count int) ([]Video, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "videosClient.newest")
	defer span.End()

	return c.getVideos(ctx, fmt.Sprintf("%s/videos/newest?count=%d", c.baseURL, count))
}

func (c *Client) getVideos(ctx context.Context, url string) (videos []Video, err error) {
	span := trace.SpanFromContext(ctx)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	cacheKey := []byte(url)
	if cachedBytes, cacheErr := c.cache.Get(cacheKey); cacheErr == nil {
		span.SetAttributes(attribute.Bool("videos.from-cache", true))
		if err := json.Unmarshal(cachedBytes, &videos); err == nil {
			return videos, nil
		}
		log.Errorf("failed to unmarshal cached videos for [%s], will refetch", url)
	}
	span.SetAttributes(attribute.Bool("videos.from-cache", false))

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog api status: %s", resp.Status)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response bytes: %w", err)
	}

	if err := json.Unmarshal(respBytes, &videos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog response bytes: %w", err)
	}

	if err := c.cache.Set(cacheKey, respBytes, catalogCacheExpire); err != nil {
		log.Errorf("failed to write videos cache for [%s]: %s", url, err)
	}

	return videos, nil
}
