package platform

import (
	"time"

	"github.com/maheshrc27/postflow/internal/models"
)

const (
	mb = 1 << 20
	gb = 1 << 30
)

var (
	imageTypes = []string{"image/jpeg", "image/png", "image/webp"}
	videoTypes = []string{"video/mp4", "video/quicktime"}
)

func mimeTypes(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var requirements = map[models.Platform]models.Requirements{
	models.PlatformTwitter: {
		MaxTextLength:      280,
		MaxMediaCount:      4,
		AllowedMimeTypes:   mimeTypes(imageTypes, []string{"image/gif", "video/mp4"}),
		MaxImageSize:       5 * mb,
		MaxVideoSize:       512 * mb,
		MaxImageDimensions: &models.Dimensions{Width: 4096, Height: 4096},
		MaxVideoDuration:   140 * time.Second,
		SupportsHashtags:   true,
		SupportsMentions:   true,
	},
	models.PlatformTelegram: {
		MaxTextLength:      4096,
		MaxMediaCount:      10,
		AllowedMimeTypes:   mimeTypes(imageTypes, videoTypes, []string{"image/gif", "application/pdf"}),
		MaxImageSize:       10 * mb,
		MaxVideoSize:       50 * mb,
		MaxImageDimensions: &models.Dimensions{Width: 10000, Height: 10000},
		SupportsHashtags:   true,
		SupportsMentions:   true,
		SupportsScheduling: true,
	},
	models.PlatformInstagram: {
		MaxTextLength:      2200,
		MaxMediaCount:      10,
		AllowedMimeTypes:   mimeTypes([]string{"image/jpeg"}, videoTypes),
		MaxImageSize:       8 * mb,
		MaxVideoSize:       300 * mb,
		MaxImageDimensions: &models.Dimensions{Width: 1440, Height: 1800},
		MaxVideoDuration:   15 * time.Minute,
		SupportsHashtags:   true,
		SupportsMentions:   true,
	},
	models.PlatformFacebook: {
		MaxTextLength:      63206,
		MaxMediaCount:      10,
		AllowedMimeTypes:   mimeTypes(imageTypes, videoTypes, []string{"image/gif"}),
		MaxImageSize:       10 * mb,
		MaxVideoSize:       4 * gb,
		MaxVideoDuration:   240 * time.Minute,
		SupportsHashtags:   true,
		SupportsMentions:   true,
		SupportsScheduling: true,
	},
	models.PlatformLinkedIn: {
		MaxTextLength:      3000,
		MaxMediaCount:      9,
		AllowedMimeTypes:   mimeTypes(imageTypes, []string{"image/gif"}),
		MaxImageSize:       10 * mb,
		MaxVideoSize:       200 * mb,
		MaxImageDimensions: &models.Dimensions{Width: 7680, Height: 4320},
		MaxVideoDuration:   10 * time.Minute,
		SupportsHashtags:   true,
		SupportsMentions:   false,
	},
	models.PlatformYouTube: {
		MaxTextLength:      5000,
		MaxMediaCount:      1,
		AllowedMimeTypes:   mimeTypes(videoTypes, []string{"video/webm", "video/x-msvideo"}),
		MaxImageSize:       2 * mb,
		MaxVideoSize:       256 * gb,
		MaxVideoDuration:   12 * time.Hour,
		SupportsHashtags:   true,
		SupportsMentions:   false,
		SupportsScheduling: true,
	},
	models.PlatformTikTok: {
		MaxTextLength:      2200,
		MaxMediaCount:      1,
		AllowedMimeTypes:   mimeTypes([]string{"video/mp4", "video/webm", "video/quicktime"}),
		MaxImageSize:       20 * mb,
		MaxVideoSize:       4 * gb,
		MaxVideoDuration:   10 * time.Minute,
		SupportsHashtags:   true,
		SupportsMentions:   true,
	},
}

// RequirementsFor returns a copy of the static limits of p. The zero value is
// returned for unknown platforms.
func RequirementsFor(p models.Platform) models.Requirements {
	r := requirements[p]
	if r.AllowedMimeTypes != nil {
		r.AllowedMimeTypes = append([]string(nil), r.AllowedMimeTypes...)
	}
	if r.MaxImageDimensions != nil {
		d := *r.MaxImageDimensions
		r.MaxImageDimensions = &d
	}
	return r
}
