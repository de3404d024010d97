package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/maheshrc27/postflow/internal/content"
	"github.com/maheshrc27/postflow/internal/models"
)

type twitterAdapter struct {
	*base
}

var _ Adapter = (*twitterAdapter)(nil)

func newTwitter(b *base) Adapter {
	b.required = []string{"access_token"}
	return &twitterAdapter{base: b}
}

type tweetResponse struct {
	Data struct {
		ID            string `json:"id"`
		PublicMetrics struct {
			LikeCount       int64 `json:"like_count"`
			RetweetCount    int64 `json:"retweet_count"`
			ReplyCount      int64 `json:"reply_count"`
			QuoteCount      int64 `json:"quote_count"`
			ImpressionCount int64 `json:"impression_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

func (a *twitterAdapter) Publish(ctx context.Context, c models.PostContent) (PublishResult, error) {
	if err := a.ensureInitialized(); err != nil {
		return PublishResult{}, err
	}

	var mediaIDs []string
	for _, m := range c.Media {
		id, err := a.uploadMedia(ctx, m)
		if err != nil {
			return a.failed(fmt.Errorf("upload media: %w", err)), nil
		}
		mediaIDs = append(mediaIDs, id)
	}

	body := map[string]any{"text": content.FormatFor(c, a.reqs)}
	if len(mediaIDs) > 0 {
		body["media"] = map[string]any{"media_ids": mediaIDs}
	}

	var resp tweetResponse
	err := a.client.DoJSON(ctx, http.MethodPost, a.baseURL+"/2/tweets", bearer(a.cred("access_token")), body, &resp)
	if err != nil {
		return a.failed(err), nil
	}
	if resp.Data.ID == "" {
		return a.failed(fmt.Errorf("twitter returned no tweet id")), nil
	}
	return a.published(resp.Data.ID, "https://x.com/i/web/status/"+resp.Data.ID), nil
}

func (a *twitterAdapter) uploadMedia(ctx context.Context, m models.MediaFile) (string, error) {
	data, err := a.mediaBytes(ctx, m)
	if err != nil {
		return "", err
	}

	category := "tweet_image"
	switch m.Type {
	case models.MediaTypeGIF:
		category = "tweet_gif"
	case models.MediaTypeVideo:
		category = "tweet_video"
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	err = a.client.DoMultipart(ctx, a.baseURL+"/2/media/upload", bearer(a.cred("access_token")),
		map[string]string{"media_category": category},
		[]multipartFile{{field: "media", name: "media", mimeType: m.MimeType, data: data}},
		&resp)
	if err != nil {
		return "", err
	}
	return resp.Data.ID, nil
}

func (a *twitterAdapter) GetMetrics(ctx context.Context, platformPostID string) (Metrics, error) {
	if err := a.ensureInitialized(); err != nil {
		return Metrics{}, err
	}

	var resp tweetResponse
	url := fmt.Sprintf("%s/2/tweets/%s?tweet.fields=public_metrics", a.baseURL, platformPostID)
	if err := a.client.DoJSON(ctx, http.MethodGet, url, bearer(a.cred("access_token")), nil, &resp); err != nil {
		return Metrics{}, err
	}

	pm := resp.Data.PublicMetrics
	return Metrics{
		Likes:    pm.LikeCount,
		Shares:   pm.RetweetCount + pm.QuoteCount,
		Comments: pm.ReplyCount,
		Views:    pm.ImpressionCount,
	}.withEngagement(), nil
}

func (a *twitterAdapter) ValidateCredentials(ctx context.Context) (bool, error) {
	if err := a.ensureInitialized(); err != nil {
		return false, err
	}
	return credentialCheck(a.client.DoJSON(ctx, http.MethodGet, a.baseURL+"/2/users/me", bearer(a.cred("access_token")), nil, nil))
}
