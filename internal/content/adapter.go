// Package content reshapes a post to fit one platform's limits.
package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/maheshrc27/postflow/internal/models"
)

const ellipsis = "..."

var (
	hashtagPattern = regexp.MustCompile(`#\w+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
)

// Adapt returns a copy of c trimmed to reqs. The input is never modified.
func Adapt(c models.PostContent, reqs models.Requirements) models.PostContent {
	out := c.Clone()

	out.Text = Truncate(out.Text, reqs.MaxTextLength)

	if reqs.MaxMediaCount > 0 && len(out.Media) > reqs.MaxMediaCount {
		out.Media = out.Media[:reqs.MaxMediaCount]
	}
	if !reqs.SupportsHashtags {
		out.Hashtags = nil
	}
	if !reqs.SupportsMentions {
		out.Mentions = nil
	}
	return out
}

// Truncate cuts text to max runes, replacing the tail with "...". A max of
// zero or less means unlimited.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	if max <= len(ellipsis) {
		return string([]rune(text)[:max])
	}
	return string([]rune(text)[:max-len(ellipsis)]) + ellipsis
}

// FormatText renders the outbound body: text, then hashtags, then link, each
// block separated by a blank line.
func FormatText(c models.PostContent) string {
	var b strings.Builder
	b.WriteString(c.Text)

	if len(c.Hashtags) > 0 {
		tags := make([]string, 0, len(c.Hashtags))
		for _, tag := range c.Hashtags {
			tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
			if tag == "" {
				continue
			}
			tags = append(tags, "#"+tag)
		}
		if len(tags) > 0 {
			b.WriteString("\n\n")
			b.WriteString(strings.Join(tags, " "))
		}
	}

	if c.Link != "" {
		b.WriteString("\n\n")
		b.WriteString(c.Link)
	}
	return b.String()
}

// FormatFor is FormatText bounded by the platform text limit.
func FormatFor(c models.PostContent, reqs models.Requirements) string {
	return Truncate(FormatText(c), reqs.MaxTextLength)
}

func ExtractHashtags(text string) []string {
	return hashtagPattern.FindAllString(text, -1)
}

func ExtractMentions(text string) []string {
	return mentionPattern.FindAllString(text, -1)
}
