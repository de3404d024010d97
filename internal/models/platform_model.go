package models

import "time"

type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformTelegram  Platform = "telegram"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
)

// Platforms lists every supported platform.
var Platforms = []Platform{
	PlatformTwitter,
	PlatformTelegram,
	PlatformInstagram,
	PlatformFacebook,
	PlatformLinkedIn,
	PlatformYouTube,
	PlatformTikTok,
}

func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Requirements describes what a platform accepts for a single post.
type Requirements struct {
	MaxTextLength      int           `json:"max_text_length"`
	MaxMediaCount      int           `json:"max_media_count"`
	AllowedMimeTypes   []string      `json:"allowed_mime_types"`
	MaxImageSize       int64         `json:"max_image_size"`
	MaxVideoSize       int64         `json:"max_video_size"`
	MaxImageDimensions *Dimensions   `json:"max_image_dimensions,omitempty"`
	MaxVideoDuration   time.Duration `json:"max_video_duration,omitempty"`
	SupportsHashtags   bool          `json:"supports_hashtags"`
	SupportsMentions   bool          `json:"supports_mentions"`
	SupportsScheduling bool          `json:"supports_scheduling"`
}

func (r Requirements) AllowsMimeType(mime string) bool {
	for _, allowed := range r.AllowedMimeTypes {
		if allowed == mime {
			return true
		}
	}
	return false
}
