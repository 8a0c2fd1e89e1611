package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"mediaconv/internal/app/model"
)

// OEmbedSource asks the public oEmbed endpoint for the title, author and
// thumbnail. It needs no video page parsing and works when the full client
// is blocked.
type OEmbedSource struct {
	endpoint string
	client   *http.Client
}

func NewOEmbedSource(endpoint string, client *http.Client) *OEmbedSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &OEmbedSource{endpoint: endpoint, client: client}
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (s *OEmbedSource) Lookup(ctx context.Context, locator string) (*model.Metadata, error) {
	q := url.Values{}
	q.Set("url", locator)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build oEmbed request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oEmbed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oEmbed request failed: %d", resp.StatusCode)
	}

	var body oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode oEmbed response: %w", err)
	}
	return &model.Metadata{
		Title:     body.Title,
		Channel:   body.AuthorName,
		Thumbnail: body.ThumbnailURL,
	}, nil
}
