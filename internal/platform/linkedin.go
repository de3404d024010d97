package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/maheshrc27/postflow/internal/content"
	"github.com/maheshrc27/postflow/internal/models"
)

const linkedinVersion = "202409"

type linkedinAdapter struct {
	*base
}

var _ Adapter = (*linkedinAdapter)(nil)

func newLinkedIn(b *base) Adapter {
	b.required = []string{"access_token", "author_urn"}
	return &linkedinAdapter{base: b}
}

type linkedinImageUpload struct {
	Value struct {
		UploadURL string `json:"uploadUrl"`
		Image     string `json:"image"`
	} `json:"value"`
}

type linkedinSocialActions struct {
	LikesSummary struct {
		TotalLikes int64 `json:"totalLikes"`
	} `json:"likesSummary"`
	CommentsSummary struct {
		AggregatedTotalComments int64 `json:"aggregatedTotalComments"`
	} `json:"commentsSummary"`
}

func (a *linkedinAdapter) headers() http.Header {
	h := bearer(a.cred("access_token"))
	h.Set("LinkedIn-Version", linkedinVersion)
	h.Set("X-Restli-Protocol-Version", "2.0.0")
	return h
}

func (a *linkedinAdapter) Publish(ctx context.Context, c models.PostContent) (PublishResult, error) {
	if err := a.ensureInitialized(); err != nil {
		return PublishResult{}, err
	}

	var images []string
	for _, m := range c.Media {
		if m.Type == models.MediaTypeVideo {
			return a.failed(errors.New("linkedin video posts are not supported")), nil
		}
		urn, err := a.uploadImage(ctx, m)
		if err != nil {
			return a.failed(fmt.Errorf("upload image: %w", err)), nil
		}
		images = append(images, urn)
	}

	post := map[string]any{
		"author":     a.cred("author_urn"),
		"commentary": content.FormatFor(c, a.reqs),
		"visibility": "PUBLIC",
		"distribution": map[string]any{
			"feedDistribution":               "MAIN_FEED",
			"targetEntities":                 []string{},
			"thirdPartyDistributionChannels": []string{},
		},
		"lifecycleState":            "PUBLISHED",
		"isReshareDisabledByAuthor": false,
	}
	switch {
	case len(images) == 1:
		post["content"] = map[string]any{"media": map[string]string{"id": images[0]}}
	case len(images) > 1:
		list := make([]map[string]string, 0, len(images))
		for _, urn := range images {
			list = append(list, map[string]string{"id": urn})
		}
		post["content"] = map[string]any{"multiImage": map[string]any{"images": list}}
	case c.Link != "":
		post["content"] = map[string]any{"article": map[string]string{"source": c.Link}}
	}

	raw, err := marshalString(post)
	if err != nil {
		return PublishResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/rest/posts", bytes.NewReader([]byte(raw)))
	if err != nil {
		return PublishResult{}, err
	}
	req.Header = a.headers()
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return a.failed(err), nil
	}
	resp.Body.Close()

	// the post URN only comes back in a header
	urn := resp.Header.Get("x-restli-id")
	if urn == "" {
		return a.failed(errors.New("no post URN returned from LinkedIn")), nil
	}
	return a.published(urn, "https://www.linkedin.com/feed/update/"+urn), nil
}

func (a *linkedinAdapter) uploadImage(ctx context.Context, m models.MediaFile) (string, error) {
	data, err := a.mediaBytes(ctx, m)
	if err != nil {
		return "", err
	}

	var upload linkedinImageUpload
	err = a.client.DoJSON(ctx, http.MethodPost, a.baseURL+"/rest/images?action=initializeUpload", a.headers(),
		map[string]any{"initializeUploadRequest": map[string]string{"owner": a.cred("author_urn")}}, &upload)
	if err != nil {
		return "", err
	}
	if upload.Value.UploadURL == "" || upload.Value.Image == "" {
		return "", errors.New("linkedin returned no upload url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, upload.Value.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header = bearer(a.cred("access_token"))
	if m.MimeType != "" {
		req.Header.Set("Content-Type", m.MimeType)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	return upload.Value.Image, nil
}

func (a *linkedinAdapter) GetMetrics(ctx context.Context, platformPostID string) (Metrics, error) {
	if err := a.ensureInitialized(); err != nil {
		return Metrics{}, err
	}

	var actions linkedinSocialActions
	endpoint := a.baseURL + "/rest/socialActions/" + url.PathEscape(platformPostID)
	if err := a.client.DoJSON(ctx, http.MethodGet, endpoint, a.headers(), nil, &actions); err != nil {
		return Metrics{}, err
	}

	return Metrics{
		Likes:    actions.LikesSummary.TotalLikes,
		Comments: actions.CommentsSummary.AggregatedTotalComments,
	}.withEngagement(), nil
}

func (a *linkedinAdapter) ValidateCredentials(ctx context.Context) (bool, error) {
	if err := a.ensureInitialized(); err != nil {
		return false, err
	}
	return credentialCheck(a.client.DoJSON(ctx, http.MethodGet, a.baseURL+"/v2/userinfo", bearer(a.cred("access_token")), nil, nil))
}
