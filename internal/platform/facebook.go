package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/maheshrc27/postflow/internal/content"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
)

type facebookAdapter struct {
	*base
}

var _ Adapter = (*facebookAdapter)(nil)

func newFacebook(b *base) Adapter {
	b.required = []string{"page_id", "page_access_token"}
	return &facebookAdapter{base: b}
}

func (a *facebookAdapter) pageURL(edge string) string {
	return fmt.Sprintf("%s/%s/%s", a.baseURL, a.cred("page_id"), edge)
}

func (a *facebookAdapter) Publish(ctx context.Context, c models.PostContent) (PublishResult, error) {
	if err := a.ensureInitialized(); err != nil {
		return PublishResult{}, err
	}
	for _, m := range c.Media {
		if m.URL == "" {
			return a.failed(fmt.Errorf("media %s has no public url for facebook to pull", m.ID)), nil
		}
	}

	message := content.FormatFor(c, a.reqs)
	token := a.cred("page_access_token")

	var result transfer.GraphID
	var err error
	switch {
	case len(c.Media) == 0:
		payload := map[string]any{"message": message, "access_token": token}
		if c.Link != "" {
			payload["link"] = c.Link
		}
		err = a.client.DoJSON(ctx, http.MethodPost, a.pageURL("feed"), nil, payload, &result)

	case len(c.Media) == 1 && c.Media[0].Type == models.MediaTypeVideo:
		err = a.client.DoJSON(ctx, http.MethodPost, a.pageURL("videos"), nil,
			map[string]any{"file_url": c.Media[0].URL, "description": message, "access_token": token}, &result)

	case len(c.Media) == 1:
		err = a.client.DoJSON(ctx, http.MethodPost, a.pageURL("photos"), nil,
			map[string]any{"url": c.Media[0].URL, "caption": message, "access_token": token}, &result)

	default:
		result, err = a.publishAlbum(ctx, c.Media, message)
	}
	if err != nil {
		return a.failed(graphError(err)), nil
	}

	id := result.PostID
	if id == "" {
		id = result.ID
	}
	if id == "" {
		return a.failed(errors.New("no post ID returned from Facebook")), nil
	}
	return a.published(id, "https://www.facebook.com/"+id), nil
}

// publishAlbum uploads each photo unpublished and attaches them to one feed
// post.
func (a *facebookAdapter) publishAlbum(ctx context.Context, media []models.MediaFile, message string) (transfer.GraphID, error) {
	token := a.cred("page_access_token")
	attached := make([]map[string]string, 0, len(media))

	for _, m := range media {
		if m.Type == models.MediaTypeVideo {
			return transfer.GraphID{}, errors.New("facebook multi-media posts accept photos only")
		}
		var photo transfer.GraphID
		err := a.client.DoJSON(ctx, http.MethodPost, a.pageURL("photos"), nil,
			map[string]any{"url": m.URL, "published": false, "access_token": token}, &photo)
		if err != nil {
			return transfer.GraphID{}, err
		}
		attached = append(attached, map[string]string{"media_fbid": photo.ID})
	}

	var result transfer.GraphID
	err := a.client.DoJSON(ctx, http.MethodPost, a.pageURL("feed"), nil,
		map[string]any{"message": message, "attached_media": attached, "access_token": token}, &result)
	return result, err
}

func (a *facebookAdapter) GetMetrics(ctx context.Context, platformPostID string) (Metrics, error) {
	if err := a.ensureInitialized(); err != nil {
		return Metrics{}, err
	}

	endpoint := fmt.Sprintf("%s/%s?fields=reactions.summary(total_count),comments.summary(total_count),shares&access_token=%s",
		a.baseURL, platformPostID, url.QueryEscape(a.cred("page_access_token")))

	var fields transfer.FacebookPostFields
	if err := a.client.DoJSON(ctx, http.MethodGet, endpoint, nil, nil, &fields); err != nil {
		return Metrics{}, err
	}

	return Metrics{
		Likes:    fields.Reactions.Summary.TotalCount,
		Comments: fields.Comments.Summary.TotalCount,
		Shares:   fields.Shares.Count,
	}.withEngagement(), nil
}

func (a *facebookAdapter) ValidateCredentials(ctx context.Context) (bool, error) {
	if err := a.ensureInitialized(); err != nil {
		return false, err
	}
	endpoint := fmt.Sprintf("%s/%s?fields=id&access_token=%s", a.baseURL, a.cred("page_id"), url.QueryEscape(a.cred("page_access_token")))
	return credentialCheck(a.client.DoJSON(ctx, http.MethodGet, endpoint, nil, nil, nil))
}

// graphError pulls the message out of a Graph API error body.
func graphError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		var ge transfer.GraphErrorResponse
		if json.Unmarshal([]byte(apiErr.Body), &ge) == nil && ge.Error.Message != "" {
			return fmt.Errorf("%s graph api: %s (code %d)", apiErr.Platform, ge.Error.Message, ge.Error.Code)
		}
	}
	return err
}
