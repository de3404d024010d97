package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/maheshrc27/postflow/internal/content"
	"github.com/maheshrc27/postflow/internal/models"
)

const telegramCaptionLimit = 1024

type telegramAdapter struct {
	*base
}

var _ Adapter = (*telegramAdapter)(nil)

func newTelegram(b *base) Adapter {
	b.required = []string{"bot_token", "chat_id"}
	return &telegramAdapter{base: b}
}

type telegramMessage struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

type telegramGroupMessage struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      []struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

type telegramInputMedia struct {
	Type    string `json:"type"`
	Media   string `json:"media"`
	Caption string `json:"caption,omitempty"`
}

func (a *telegramAdapter) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", a.baseURL, a.cred("bot_token"), name)
}

func (a *telegramAdapter) Publish(ctx context.Context, c models.PostContent) (PublishResult, error) {
	if err := a.ensureInitialized(); err != nil {
		return PublishResult{}, err
	}

	text := content.FormatFor(c, a.reqs)
	chatID := a.cred("chat_id")

	var messageID int64
	var err error
	switch len(c.Media) {
	case 0:
		var resp telegramMessage
		err = a.client.DoJSON(ctx, http.MethodPost, a.method("sendMessage"), nil,
			map[string]any{"chat_id": chatID, "text": text}, &resp)
		if err == nil && !resp.OK {
			err = fmt.Errorf("telegram: %s", resp.Description)
		}
		messageID = resp.Result.MessageID
	case 1:
		messageID, err = a.sendSingle(ctx, c.Media[0], content.Truncate(text, telegramCaptionLimit))
	default:
		messageID, err = a.sendGroup(ctx, c.Media, content.Truncate(text, telegramCaptionLimit))
	}
	if err != nil {
		return a.failed(a.redact(err)), nil
	}

	id := chatID + ":" + strconv.FormatInt(messageID, 10)
	return a.published(id, ""), nil
}

func telegramKind(m models.MediaFile) (method, field, inputType string) {
	switch m.Type {
	case models.MediaTypeImage:
		return "sendPhoto", "photo", "photo"
	case models.MediaTypeVideo:
		return "sendVideo", "video", "video"
	case models.MediaTypeGIF:
		return "sendAnimation", "animation", "animation"
	}
	return "sendDocument", "document", "document"
}

func (a *telegramAdapter) sendSingle(ctx context.Context, m models.MediaFile, caption string) (int64, error) {
	method, field, _ := telegramKind(m)
	chatID := a.cred("chat_id")

	var resp telegramMessage
	var err error
	if m.URL != "" {
		err = a.client.DoJSON(ctx, http.MethodPost, a.method(method), nil,
			map[string]any{"chat_id": chatID, field: m.URL, "caption": caption}, &resp)
	} else {
		if len(m.Data) == 0 {
			return 0, fmt.Errorf("media %s has neither data nor url", m.ID)
		}
		err = a.client.DoMultipart(ctx, a.method(method), nil,
			map[string]string{"chat_id": chatID, "caption": caption},
			[]multipartFile{{field: field, name: field, mimeType: m.MimeType, data: m.Data}},
			&resp)
	}
	if err != nil {
		return 0, err
	}
	if !resp.OK {
		return 0, fmt.Errorf("telegram: %s", resp.Description)
	}
	return resp.Result.MessageID, nil
}

// sendGroup posts an album. Media without a URL is attached to the request.
func (a *telegramAdapter) sendGroup(ctx context.Context, media []models.MediaFile, caption string) (int64, error) {
	items := make([]telegramInputMedia, 0, len(media))
	var files []multipartFile

	for i, m := range media {
		_, _, inputType := telegramKind(m)
		if inputType == "animation" {
			inputType = "document"
		}
		item := telegramInputMedia{Type: inputType, Media: m.URL}
		if i == 0 {
			item.Caption = caption
		}
		if m.URL == "" {
			name := fmt.Sprintf("file%d", i)
			item.Media = "attach://" + name
			files = append(files, multipartFile{field: name, name: name, mimeType: m.MimeType, data: m.Data})
		}
		items = append(items, item)
	}

	var resp telegramGroupMessage
	var err error
	if len(files) == 0 {
		err = a.client.DoJSON(ctx, http.MethodPost, a.method("sendMediaGroup"), nil,
			map[string]any{"chat_id": a.cred("chat_id"), "media": items}, &resp)
	} else {
		raw, merr := marshalString(items)
		if merr != nil {
			return 0, merr
		}
		err = a.client.DoMultipart(ctx, a.method("sendMediaGroup"), nil,
			map[string]string{"chat_id": a.cred("chat_id"), "media": raw}, files, &resp)
	}
	if err != nil {
		return 0, err
	}
	if !resp.OK || len(resp.Result) == 0 {
		return 0, fmt.Errorf("telegram: %s", resp.Description)
	}
	return resp.Result[0].MessageID, nil
}

// redact strips the bot token, which is part of every request URL, from
// errors that end up in storage.
func (a *telegramAdapter) redact(err error) error {
	token := a.cred("bot_token")
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<redacted>"))
}

// GetMetrics returns zero counters: the Bot API exposes no engagement data
// for channel messages.
func (a *telegramAdapter) GetMetrics(ctx context.Context, platformPostID string) (Metrics, error) {
	if err := a.ensureInitialized(); err != nil {
		return Metrics{}, err
	}
	return Metrics{}.withEngagement(), nil
}

func (a *telegramAdapter) ValidateCredentials(ctx context.Context) (bool, error) {
	if err := a.ensureInitialized(); err != nil {
		return false, err
	}
	var resp telegramMessage
	err := a.client.DoJSON(ctx, http.MethodGet, a.method("getMe"), nil, nil, &resp)
	if ok, cerr := credentialCheck(err); !ok {
		if cerr != nil {
			cerr = a.redact(cerr)
		}
		return false, cerr
	}
	return resp.OK, nil
}
