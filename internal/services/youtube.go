// YouTube Data API implementation of [DestinationAPI]
//
// Response shapes based on https://developers.google.com/youtube/v3/docs
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/crossfade/internal/shared"
)

const youtubeBaseURL = "https://www.googleapis.com/youtube/v3"

// youtubeError is the standard Google API error envelope.
type youtubeError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
			Domain string `json:"domain"`
		} `json:"errors"`
	} `json:"error"`
}

// quotaReasons are the error reasons that indicate the daily/per-second call
// budget is exhausted, as opposed to a transient failure.
var quotaReasons = map[string]bool{
	"quotaExceeded":      true,
	"dailyLimitExceeded": true,
	"rateLimitExceeded":  true,
}

// YouTubeClient implements [DestinationAPI] against the YouTube Data API v3.
type YouTubeClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// YouTubeOpts contains configuration options for creating a [YouTubeClient].
type YouTubeOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration // per-call deadline
}

// NewYouTubeClient creates a YouTube client with the given options.
func NewYouTubeClient(opts YouTubeOpts) *YouTubeClient {
	if opts.BaseURL == "" {
		opts.BaseURL = youtubeBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &YouTubeClient{
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
	}
}

// SearchVideo issues one search call and returns the first result's video id,
// or the empty string when nothing matched.
//
// Quota exhaustion is reported as an error wrapping [shared.ErrQuotaExceeded]
// so the matcher can distinguish it from transient failures.
func (y *YouTubeClient) SearchVideo(ctx context.Context, accessToken, query string) (string, error) {
	endpoint := fmt.Sprintf("/search?part=id&type=video&maxResults=1&q=%s", url.QueryEscape(query))

	var result struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
		} `json:"items"`
	}

	if err := y.doRequest(ctx, http.MethodGet, endpoint, accessToken, nil, &result); err != nil {
		return "", err
	}
	if len(result.Items) == 0 {
		return "", nil
	}

	return result.Items[0].ID.VideoID, nil
}

// CreatePlaylist creates a new playlist with private visibility.
func (y *YouTubeClient) CreatePlaylist(ctx context.Context, accessToken, title string) (string, error) {
	body := map[string]any{
		"snippet": map[string]any{
			"title":       title,
			"description": "Created by crossfade playlist migration",
		},
		"status": map[string]any{
			"privacyStatus": "private",
		},
	}

	var result struct {
		ID string `json:"id"`
	}

	if err := y.doRequest(ctx, http.MethodPost, "/playlists?part=snippet,status", accessToken, body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("playlist create returned no id")
	}

	return result.ID, nil
}

// InsertPlaylistItem appends a single video to a playlist.
func (y *YouTubeClient) InsertPlaylistItem(ctx context.Context, accessToken, playlistID, videoID string) error {
	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": playlistID,
			"resourceId": map[string]any{
				"kind":    "youtube#video",
				"videoId": videoID,
			},
		},
	}

	return y.doRequest(ctx, http.MethodPost, "/playlistItems?part=snippet", accessToken, body, nil)
}

// doRequest performs an authenticated request against the YouTube API with a
// per-call deadline, decoding either the result or the error envelope.
func (y *YouTubeClient) doRequest(ctx context.Context, method, endpoint, accessToken string, body, result any) error {
	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return y.apiError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// apiError classifies a non-2xx response, detecting the quota-exhaustion
// signal (403 plus a quota-related reason or message).
func (y *YouTubeClient) apiError(resp *http.Response) error {
	var envelope youtubeError
	decoded := json.NewDecoder(resp.Body).Decode(&envelope) == nil

	if resp.StatusCode == http.StatusForbidden && decoded {
		for _, e := range envelope.Error.Errors {
			if quotaReasons[e.Reason] {
				return fmt.Errorf("%w: %s", shared.ErrQuotaExceeded, envelope.Error.Message)
			}
		}
		if strings.Contains(strings.ToLower(envelope.Error.Message), "quota") {
			return fmt.Errorf("%w: %s", shared.ErrQuotaExceeded, envelope.Error.Message)
		}
	}

	if decoded && envelope.Error.Message != "" {
		return fmt.Errorf("youtube API error (status %d): %s", resp.StatusCode, envelope.Error.Message)
	}
	return fmt.Errorf("youtube API error: status %d", resp.StatusCode)
}
