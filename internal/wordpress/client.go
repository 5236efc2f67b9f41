package wordpress

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default timeout for post operations
	DefaultTimeout = 60 * time.Second
	// MediaUploadTimeout is the timeout for media uploads
	MediaUploadTimeout = 300 * time.Second
	// LogPreviewLength is the maximum length for log previews
	LogPreviewLength = 500
)

// Client talks to a WordPress site through the wp-json/wp/v2 REST API
// using application-password authentication.
type Client struct {
	baseURL     string
	username    string
	appPassword string
	postClient  *http.Client // for post create/update
	mediaClient *http.Client // for media uploads
	logger      *slog.Logger
}

// NewClient creates a new WordPress REST client
func NewClient(baseURL, username, appPassword string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		username:    username,
		appPassword: appPassword,
		postClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		mediaClient: &http.Client{
			Timeout: MediaUploadTimeout,
		},
		logger: logger.With("component", "wordpress", "site", baseURL),
	}
}

// BaseURL returns the site base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post is the request/response shape for wp/v2/posts
type Post struct {
	ID            int      `json:"id,omitempty"`
	Title         string   `json:"title,omitempty"`
	Content       string   `json:"content,omitempty"`
	Excerpt       string   `json:"excerpt,omitempty"`
	Slug          string   `json:"slug,omitempty"`
	Status        string   `json:"status,omitempty"`
	Author        int      `json:"author,omitempty"`
	FeaturedMedia int      `json:"featured_media,omitempty"`
	Categories    []int    `json:"categories,omitempty"`
	Tags          []string `json:"-"`
	Link          string   `json:"link,omitempty"`
}

// postResponse is the subset of the WP response we read back
type postResponse struct {
	ID     int    `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

// Media is the subset of a wp/v2/media response we read back
type Media struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
}

// CreatePost creates a new post and returns its id and public link
func (c *Client) CreatePost(ctx context.Context, post Post) (int, string, error) {
	body, err := json.Marshal(post)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/wp-json/wp/v2/posts", bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.postClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("post request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("post creation failed with status %d: %s", resp.StatusCode, preview(respBody))
	}

	var created postResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return 0, "", fmt.Errorf("failed to parse post response: %w", err)
	}

	c.logger.Info("Created post", "post_id", created.ID, "status", created.Status)
	return created.ID, created.Link, nil
}

// UploadMedia uploads an image and returns the media record.
// The body is sent raw with a Content-Disposition filename header, which is
// what the wp/v2/media endpoint expects.
func (c *Client) UploadMedia(ctx context.Context, filename, contentType string, data []byte) (*Media, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/wp-json/wp/v2/media", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.setAuth(req)

	resp, err := c.mediaClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media upload failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media upload failed with status %d: %s", resp.StatusCode, preview(respBody))
	}

	var media Media
	if err := json.Unmarshal(respBody, &media); err != nil {
		return nil, fmt.Errorf("failed to parse media response: %w", err)
	}

	c.logger.Info("Uploaded media", "media_id", media.ID, "filename", filename)
	return &media, nil
}

// SetFeaturedMedia attaches an uploaded media item to a post
func (c *Client) SetFeaturedMedia(ctx context.Context, postID, mediaID int) error {
	body, err := json.Marshal(map[string]int{"featured_media": mediaID})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/wp-json/wp/v2/posts/%d", c.baseURL, postID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.postClient.Do(req)
	if err != nil {
		return fmt.Errorf("featured media update failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("featured media update failed with status %d: %s", resp.StatusCode, preview(respBody))
	}

	return nil
}

func (c *Client) setAuth(req *http.Request) {
	creds := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.appPassword))
	req.Header.Set("Authorization", "Basic "+creds)
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > LogPreviewLength {
		return s[:LogPreviewLength] + "..."
	}
	return s
}
