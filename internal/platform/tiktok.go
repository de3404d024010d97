package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/maheshrc27/postflow/internal/content"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
)

type tiktokAdapter struct {
	*base
}

var _ Adapter = (*tiktokAdapter)(nil)

func newTikTok(b *base) Adapter {
	b.required = []string{"access_token"}
	return &tiktokAdapter{base: b}
}

func (a *tiktokAdapter) ValidateContent(c models.PostContent) ValidationResult {
	res := a.base.ValidateContent(c)
	if len(c.Media) != 1 || c.Media[0].Type != models.MediaTypeVideo {
		res.Errors = append(res.Errors, "tiktok requires exactly one video")
		res.Valid = false
	}
	return res
}

// tiktokFailure reports the error object TikTok embeds in every answer.
func tiktokFailure(e transfer.TiktokError) error {
	if e.Code == "" || e.Code == "ok" {
		return nil
	}
	return fmt.Errorf("tiktok: %s: %s (log id %s)", e.Code, e.Message, e.LogID)
}

func (a *tiktokAdapter) Publish(ctx context.Context, c models.PostContent) (PublishResult, error) {
	if err := a.ensureInitialized(); err != nil {
		return PublishResult{}, err
	}
	if len(c.Media) != 1 || c.Media[0].Type != models.MediaTypeVideo {
		return a.failed(errors.New("tiktok requires exactly one video")), nil
	}
	if c.Media[0].URL == "" {
		return a.failed(errors.New("tiktok pulls video from a public url and none is set")), nil
	}
	auth := bearer(a.cred("access_token"))

	var creator transfer.TiktokCreatorInfoResponse
	err := a.client.DoJSON(ctx, http.MethodPost, a.baseURL+"/v2/post/publish/creator_info/query/", auth, struct{}{}, &creator)
	if err == nil {
		err = tiktokFailure(creator.Error)
	}
	if err != nil {
		return a.failed(fmt.Errorf("query creator info: %w", err)), nil
	}

	privacy := "PUBLIC_TO_EVERYONE"
	if opts := creator.Data.PrivacyLevelOptions; len(opts) > 0 && !contains(opts, privacy) {
		privacy = opts[0]
	}

	req := transfer.VideoUploadRequest{
		PostInfo: transfer.VideoPostInfo{
			Title:                 content.FormatFor(c, a.reqs),
			PrivacyLevel:          privacy,
			DisableDuet:           creator.Data.DuetDisabled,
			DisableComment:        creator.Data.CommentDisabled,
			DisableStitch:         creator.Data.StitchDisabled,
			VideoCoverTimestampMs: 1000,
		},
		SourceInfo: transfer.VideoSourceInfo{
			Source:   "PULL_FROM_URL",
			VideoURL: c.Media[0].URL,
		},
	}

	var result transfer.TikTokUploadResponse
	err = a.client.DoJSON(ctx, http.MethodPost, a.baseURL+"/v2/post/publish/video/init/", auth, req, &result)
	if err == nil {
		err = tiktokFailure(result.Error)
	}
	if err != nil {
		return a.failed(err), nil
	}
	if result.Data.PublishID == "" {
		return a.failed(errors.New("no publish ID returned from TikTok")), nil
	}
	return a.published(result.Data.PublishID, ""), nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (a *tiktokAdapter) GetMetrics(ctx context.Context, platformPostID string) (Metrics, error) {
	if err := a.ensureInitialized(); err != nil {
		return Metrics{}, err
	}

	videoID, err := a.videoID(ctx, platformPostID)
	if err != nil {
		return Metrics{}, err
	}

	var query transfer.TiktokVideoQueryRequest
	query.Filters.VideoIDs = []string{videoID}

	var resp transfer.TiktokVideoQueryResponse
	endpoint := a.baseURL + "/v2/video/query/?fields=id,like_count,comment_count,share_count,view_count"
	if err := a.client.DoJSON(ctx, http.MethodPost, endpoint, bearer(a.cred("access_token")), query, &resp); err != nil {
		return Metrics{}, err
	}
	if err := tiktokFailure(resp.Error); err != nil {
		return Metrics{}, err
	}
	if len(resp.Data.Videos) == 0 {
		return Metrics{}, fmt.Errorf("tiktok video not found: %s", videoID)
	}

	v := resp.Data.Videos[0]
	return Metrics{
		Likes:    v.LikeCount,
		Comments: v.CommentCount,
		Shares:   v.ShareCount,
		Views:    v.ViewCount,
	}.withEngagement(), nil
}

// videoID resolves the publish id returned by Publish to the id of the public
// video. It is only known once TikTok has finished processing the upload.
func (a *tiktokAdapter) videoID(ctx context.Context, publishID string) (string, error) {
	var resp transfer.TiktokPublishStatusResponse
	req := transfer.TiktokPublishStatusRequest{PublishID: publishID}
	if err := a.client.DoJSON(ctx, http.MethodPost, a.baseURL+"/v2/post/publish/status/fetch/", bearer(a.cred("access_token")), req, &resp); err != nil {
		return "", fmt.Errorf("fetch publish status: %w", err)
	}
	if err := tiktokFailure(resp.Error); err != nil {
		return "", fmt.Errorf("fetch publish status: %w", err)
	}
	if resp.Data.Status == "FAILED" {
		return "", fmt.Errorf("tiktok publish %s failed: %s", publishID, resp.Data.FailReason)
	}
	if len(resp.Data.PubliclyAvailablePostID) == 0 {
		return "", fmt.Errorf("tiktok publish %s has no public video yet (status %s)", publishID, resp.Data.Status)
	}
	return strconv.FormatInt(resp.Data.PubliclyAvailablePostID[0], 10), nil
}

func (a *tiktokAdapter) ValidateCredentials(ctx context.Context) (bool, error) {
	if err := a.ensureInitialized(); err != nil {
		return false, err
	}
	var resp transfer.TiktokUserResponse
	err := a.client.DoJSON(ctx, http.MethodGet, a.baseURL+"/v2/user/info/?fields=open_id", bearer(a.cred("access_token")), nil, &resp)
	if ok, cerr := credentialCheck(err); !ok {
		return false, cerr
	}
	return resp.Data.User.OpenID != "", nil
}
