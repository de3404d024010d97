package content

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/maheshrc27/postflow/internal/models"
)

func TestAdapt_TruncatesText(t *testing.T) {
	in := models.PostContent{Text: strings.Repeat("a", 300)}
	out := Adapt(in, models.Requirements{MaxTextLength: 280, MaxMediaCount: 4})

	if n := utf8.RuneCountInString(out.Text); n != 280 {
		t.Errorf("len(Text) = %d, want 280", n)
	}
	if !strings.HasSuffix(out.Text, "...") {
		t.Errorf("Text does not end with ellipsis: %q", out.Text[270:])
	}
	if len(in.Text) != 300 {
		t.Error("input text was modified")
	}
}

func TestAdapt_ShortTextUntouched(t *testing.T) {
	out := Adapt(models.PostContent{Text: "hello"}, models.Requirements{MaxTextLength: 5})
	if out.Text != "hello" {
		t.Errorf("Text = %q, want hello", out.Text)
	}
}

func TestAdapt_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("é", 10)
	out := Adapt(models.PostContent{Text: text}, models.Requirements{MaxTextLength: 10})
	if out.Text != text {
		t.Errorf("Text = %q, want unchanged", out.Text)
	}
}

func TestAdapt_KeepsFirstMedia(t *testing.T) {
	in := models.PostContent{Media: []models.MediaFile{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}}}
	out := Adapt(in, models.Requirements{MaxMediaCount: 4})

	if len(out.Media) != 4 {
		t.Fatalf("len(Media) = %d, want 4", len(out.Media))
	}
	for i, m := range out.Media {
		if want := string(rune('1' + i)); m.ID != want {
			t.Errorf("Media[%d].ID = %q, want %q", i, m.ID, want)
		}
	}
	if len(in.Media) != 5 {
		t.Error("input media was modified")
	}
}

func TestAdapt_DropsUnsupportedTagsAndMentions(t *testing.T) {
	in := models.PostContent{Hashtags: []string{"#go"}, Mentions: []string{"@gopher"}}

	out := Adapt(in, models.Requirements{MaxMediaCount: 1})
	if out.Hashtags != nil || out.Mentions != nil {
		t.Errorf("got hashtags=%v mentions=%v, want both empty", out.Hashtags, out.Mentions)
	}

	out = Adapt(in, models.Requirements{MaxMediaCount: 1, SupportsHashtags: true, SupportsMentions: true})
	if len(out.Hashtags) != 1 || len(out.Mentions) != 1 {
		t.Errorf("got hashtags=%v mentions=%v, want both kept", out.Hashtags, out.Mentions)
	}
}

func TestFormatText(t *testing.T) {
	tests := []struct {
		name string
		in   models.PostContent
		want string
	}{
		{"text only", models.PostContent{Text: "hi"}, "hi"},
		{"hashtags normalised", models.PostContent{Text: "hi", Hashtags: []string{"go", "#rust", "##zig"}}, "hi\n\n#go #rust #zig"},
		{"link", models.PostContent{Text: "hi", Link: "https://example.com"}, "hi\n\nhttps://example.com"},
		{"hashtags and link", models.PostContent{Text: "hi", Hashtags: []string{"a"}, Link: "https://x.io"}, "hi\n\n#a\n\nhttps://x.io"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatText(tt.in); got != tt.want {
				t.Errorf("FormatText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatFor_RespectsLimit(t *testing.T) {
	c := models.PostContent{Text: strings.Repeat("x", 270), Hashtags: []string{"golang", "backend"}}
	got := FormatFor(c, models.Requirements{MaxTextLength: 280})
	if n := utf8.RuneCountInString(got); n != 280 {
		t.Errorf("len = %d, want 280", n)
	}
}

func TestExtractHashtags(t *testing.T) {
	got := ExtractHashtags("a #b #c-d #e")
	want := []string{"#b", "#c", "#e"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractHashtags = %v, want %v", got, want)
	}
}

func TestExtractMentions(t *testing.T) {
	got := ExtractMentions("thanks @alice and @bob_2!")
	want := []string{"@alice", "@bob_2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractMentions = %v, want %v", got, want)
	}
	if got := ExtractMentions("no mentions"); len(got) != 0 {
		t.Errorf("ExtractMentions = %v, want empty", got)
	}
}
