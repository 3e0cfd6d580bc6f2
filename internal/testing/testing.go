// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/crossfade/internal/models"
)

// MockSource is a canned test double for services.SourceAPI.
type MockSource struct {
	Tracks []models.Track
	Err    error
}

func (m *MockSource) PlaylistTracks(context.Context, string, string) ([]models.Track, error) {
	return m.Tracks, m.Err
}

// MockDestination is a canned test double for services.DestinationAPI.
type MockDestination struct {
	VideoID    string
	PlaylistID string
	SearchErr  error
	CreateErr  error
	InsertErr  error
}

func (m *MockDestination) SearchVideo(context.Context, string, string) (string, error) {
	return m.VideoID, m.SearchErr
}

func (m *MockDestination) CreatePlaylist(context.Context, string, string) (string, error) {
	return m.PlaylistID, m.CreateErr
}

func (m *MockDestination) InsertPlaylistItem(context.Context, string, string, string) error {
	return m.InsertErr
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// FCloser simulates a failure when reading a response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
