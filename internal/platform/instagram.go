package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/maheshrc27/postflow/internal/content"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
)

// containerPollInterval is how often a video container is checked before
// publishing.
var containerPollInterval = 5 * time.Second

const containerPollAttempts = 60

type instagramAdapter struct {
	*base
}

var _ Adapter = (*instagramAdapter)(nil)

func newInstagram(b *base) Adapter {
	b.required = []string{"access_token", "account_id"}
	return &instagramAdapter{base: b}
}

func (a *instagramAdapter) ValidateContent(c models.PostContent) ValidationResult {
	res := a.base.ValidateContent(c)
	if len(c.Media) == 0 {
		res.Errors = append(res.Errors, "instagram requires at least one image or video")
		res.Valid = false
	}
	return res
}

func (a *instagramAdapter) Publish(ctx context.Context, c models.PostContent) (PublishResult, error) {
	if err := a.ensureInitialized(); err != nil {
		return PublishResult{}, err
	}
	if len(c.Media) == 0 {
		return a.failed(errors.New("instagram requires at least one image or video")), nil
	}
	for _, m := range c.Media {
		if m.URL == "" {
			return a.failed(fmt.Errorf("media %s has no public url for instagram to pull", m.ID)), nil
		}
	}

	caption := content.FormatFor(c, a.reqs)

	var containerID string
	var err error
	if len(c.Media) == 1 {
		containerID, err = a.createContainer(ctx, c.Media[0], caption, false)
	} else {
		containerID, err = a.createCarousel(ctx, c.Media, caption)
	}
	if err != nil {
		return a.failed(graphError(err)), nil
	}

	if err := a.waitForContainer(ctx, containerID); err != nil {
		return a.failed(graphError(err)), nil
	}

	var published transfer.GraphID
	err = a.client.DoJSON(ctx, http.MethodPost, fmt.Sprintf("%s/%s/media_publish", a.baseURL, a.cred("account_id")), nil,
		map[string]string{"creation_id": containerID, "access_token": a.cred("access_token")}, &published)
	if err != nil {
		return a.failed(graphError(err)), nil
	}
	if published.ID == "" {
		return a.failed(errors.New("no media ID returned from Instagram")), nil
	}

	return a.published(published.ID, a.permalink(ctx, published.ID)), nil
}

func (a *instagramAdapter) createContainer(ctx context.Context, m models.MediaFile, caption string, carouselItem bool) (string, error) {
	payload := map[string]any{"access_token": a.cred("access_token")}
	if m.Type == models.MediaTypeVideo {
		payload["media_type"] = "REELS"
		payload["video_url"] = m.URL
	} else {
		payload["image_url"] = m.URL
	}
	if carouselItem {
		payload["is_carousel_item"] = true
		if m.Type == models.MediaTypeVideo {
			payload["media_type"] = "VIDEO"
		}
	} else {
		payload["caption"] = caption
	}

	var result transfer.GraphID
	if err := a.client.DoJSON(ctx, http.MethodPost, fmt.Sprintf("%s/%s/media", a.baseURL, a.cred("account_id")), nil, payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("no container ID returned from Instagram")
	}
	return result.ID, nil
}

func (a *instagramAdapter) createCarousel(ctx context.Context, media []models.MediaFile, caption string) (string, error) {
	children := make([]string, 0, len(media))
	for _, m := range media {
		id, err := a.createContainer(ctx, m, "", true)
		if err != nil {
			return "", err
		}
		if err := a.waitForContainer(ctx, id); err != nil {
			return "", err
		}
		children = append(children, id)
	}

	var result transfer.GraphID
	err := a.client.DoJSON(ctx, http.MethodPost, fmt.Sprintf("%s/%s/media", a.baseURL, a.cred("account_id")), nil,
		map[string]any{
			"media_type":   "CAROUSEL",
			"caption":      caption,
			"children":     children,
			"access_token": a.cred("access_token"),
		}, &result)
	if err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("no carousel ID returned from Instagram")
	}
	return result.ID, nil
}

// waitForContainer polls until the container can be published. Image
// containers are usually FINISHED on the first check.
func (a *instagramAdapter) waitForContainer(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/%s?fields=status_code&access_token=%s", a.baseURL, id, url.QueryEscape(a.cred("access_token")))

	for i := 0; i < containerPollAttempts; i++ {
		var status transfer.GraphContainerStatus
		if err := a.client.DoJSON(ctx, http.MethodGet, endpoint, nil, nil, &status); err != nil {
			return err
		}
		switch status.StatusCode {
		case "", "FINISHED", "PUBLISHED":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("instagram container %s: %s %s", id, status.StatusCode, status.Status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(containerPollInterval):
		}
	}
	return fmt.Errorf("instagram container %s not ready after %d checks", id, containerPollAttempts)
}

func (a *instagramAdapter) permalink(ctx context.Context, mediaID string) string {
	var fields transfer.InstagramMediaFields
	endpoint := fmt.Sprintf("%s/%s?fields=permalink&access_token=%s", a.baseURL, mediaID, url.QueryEscape(a.cred("access_token")))
	if err := a.client.DoJSON(ctx, http.MethodGet, endpoint, nil, nil, &fields); err != nil {
		return ""
	}
	return fields.Permalink
}

func (a *instagramAdapter) GetMetrics(ctx context.Context, platformPostID string) (Metrics, error) {
	if err := a.ensureInitialized(); err != nil {
		return Metrics{}, err
	}
	token := url.QueryEscape(a.cred("access_token"))

	var fields transfer.InstagramMediaFields
	endpoint := fmt.Sprintf("%s/%s?fields=like_count,comments_count&access_token=%s", a.baseURL, platformPostID, token)
	if err := a.client.DoJSON(ctx, http.MethodGet, endpoint, nil, nil, &fields); err != nil {
		return Metrics{}, err
	}

	m := Metrics{Likes: fields.LikeCount, Comments: fields.CommentsCount}

	// insights need extra permissions; counters above are enough without them
	var insights transfer.GraphInsights
	endpoint = fmt.Sprintf("%s/%s/insights?metric=views,shares&access_token=%s", a.baseURL, platformPostID, token)
	if err := a.client.DoJSON(ctx, http.MethodGet, endpoint, nil, nil, &insights); err == nil {
		m.Views = insights.Value("views")
		m.Shares = insights.Value("shares")
	}

	return m.withEngagement(), nil
}

func (a *instagramAdapter) ValidateCredentials(ctx context.Context) (bool, error) {
	if err := a.ensureInitialized(); err != nil {
		return false, err
	}
	endpoint := fmt.Sprintf("%s/me?fields=id&access_token=%s", a.baseURL, url.QueryEscape(a.cred("access_token")))
	return credentialCheck(a.client.DoJSON(ctx, http.MethodGet, endpoint, nil, nil, nil))
}
