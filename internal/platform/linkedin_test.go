package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maheshrc27/postflow/internal/models"
)

func TestLinkedIn_PublishReadsURNHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/posts" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("LinkedIn-Version") != linkedinVersion {
			t.Errorf("LinkedIn-Version = %q", r.Header.Get("LinkedIn-Version"))
		}
		w.Header().Set("x-restli-id", "urn:li:share:99")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	a := newTestAdapter(t, models.PlatformLinkedIn, srv, models.Credentials{"access_token": "t", "author_urn": "urn:li:person:1"})
	res, err := a.Publish(context.Background(), models.PostContent{Text: "hello", Mentions: []string{"@someone"}})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !res.Success || res.PlatformPostID != "urn:li:share:99" {
		t.Errorf("result = %+v", res)
	}
}
