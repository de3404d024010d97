package platform

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/maheshrc27/postflow/internal/content"
	"github.com/maheshrc27/postflow/internal/models"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const youtubeTitleLimit = 100

type youtubeAdapter struct {
	*base
}

var _ Adapter = (*youtubeAdapter)(nil)

func newYouTube(b *base) Adapter {
	b.required = []string{"access_token"}
	return &youtubeAdapter{base: b}
}

func (a *youtubeAdapter) ValidateContent(c models.PostContent) ValidationResult {
	res := a.base.ValidateContent(c)
	if len(c.Media) != 1 || c.Media[0].Type != models.MediaTypeVideo {
		res.Errors = append(res.Errors, "youtube requires exactly one video")
		res.Valid = false
	}
	return res
}

func (a *youtubeAdapter) service(ctx context.Context) (*youtube.Service, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client.http)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: a.cred("access_token")}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if a.baseURL != "" {
		opts = append(opts, option.WithEndpoint(a.baseURL))
	}
	return youtube.NewService(ctx, opts...)
}

// youtubeTitle is the first line of the text, cut to the title limit.
func youtubeTitle(text string) string {
	title, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	title = content.Truncate(strings.TrimSpace(title), youtubeTitleLimit)
	if title == "" {
		return "Untitled"
	}
	return title
}

func (a *youtubeAdapter) Publish(ctx context.Context, c models.PostContent) (PublishResult, error) {
	if err := a.ensureInitialized(); err != nil {
		return PublishResult{}, err
	}
	if len(c.Media) != 1 || c.Media[0].Type != models.MediaTypeVideo {
		return a.failed(errors.New("youtube requires exactly one video")), nil
	}

	body, err := a.videoReader(ctx, c.Media[0])
	if err != nil {
		return a.failed(err), nil
	}
	defer body.Close()

	svc, err := a.service(ctx)
	if err != nil {
		return a.failed(err), nil
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       youtubeTitle(c.Text),
			Description: content.FormatFor(c, a.reqs),
			Tags:        trimHashes(c.Hashtags),
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	var uploaded *youtube.Video
	err = a.client.Call(ctx, func() error {
		var err error
		call := svc.Videos.Insert([]string{"snippet", "status"}, video)
		if mime := c.Media[0].MimeType; mime != "" {
			call = call.Media(body, googleapi.ContentType(mime))
		} else {
			call = call.Media(body)
		}
		uploaded, err = call.Context(ctx).Do()
		return youtubeError(err)
	})
	if err != nil {
		return a.failed(err), nil
	}
	if uploaded == nil || uploaded.Id == "" {
		return a.failed(errors.New("no video ID returned from YouTube")), nil
	}
	return a.published(uploaded.Id, "https://youtu.be/"+uploaded.Id), nil
}

// videoReader streams the video from its URL when no bytes are attached.
func (a *youtubeAdapter) videoReader(ctx context.Context, m models.MediaFile) (io.ReadCloser, error) {
	if len(m.Data) > 0 {
		return io.NopCloser(bytes.NewReader(m.Data)), nil
	}
	if m.URL == "" {
		return nil, errors.New("media has neither data nor url")
	}
	if a.fetcher == nil {
		return nil, errors.New("no media fetcher configured")
	}
	r, _, err := a.fetcher.Open(ctx, m.URL)
	return r, err
}

func trimHashes(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimPrefix(t, "#"); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (a *youtubeAdapter) GetMetrics(ctx context.Context, platformPostID string) (Metrics, error) {
	if err := a.ensureInitialized(); err != nil {
		return Metrics{}, err
	}
	svc, err := a.service(ctx)
	if err != nil {
		return Metrics{}, err
	}

	var resp *youtube.VideoListResponse
	err = a.client.Call(ctx, func() error {
		var err error
		resp, err = svc.Videos.List([]string{"statistics"}).Id(platformPostID).Context(ctx).Do()
		return youtubeError(err)
	})
	if err != nil {
		return Metrics{}, err
	}
	if len(resp.Items) == 0 || resp.Items[0].Statistics == nil {
		return Metrics{}, errors.New("youtube video not found: " + platformPostID)
	}

	st := resp.Items[0].Statistics
	return Metrics{
		Likes:    int64(st.LikeCount),
		Comments: int64(st.CommentCount),
		Views:    int64(st.ViewCount),
	}.withEngagement(), nil
}

func (a *youtubeAdapter) ValidateCredentials(ctx context.Context) (bool, error) {
	if err := a.ensureInitialized(); err != nil {
		return false, err
	}
	svc, err := a.service(ctx)
	if err != nil {
		return false, err
	}
	err = a.client.Call(ctx, func() error {
		_, err := svc.Channels.List([]string{"id"}).Mine(true).Context(ctx).Do()
		return youtubeError(err)
	})
	return credentialCheck(err)
}

// youtubeError turns SDK errors into *APIError so the breaker and the
// credential check treat them like any other platform answer.
func youtubeError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		body := gerr.Message
		if body == "" {
			body = gerr.Body
		}
		return &APIError{Platform: models.PlatformYouTube, StatusCode: gerr.Code, Body: body}
	}
	return err
}
