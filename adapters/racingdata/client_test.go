package racingdata_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/XavierBriggs/Paddock/adapters/racingdata"
)

func newTestServer(t *testing.T, wantPath, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "api-user" || pass != "api-pass" {
			t.Errorf("missing or wrong basic auth: %q/%q", user, pass)
		}
		if r.URL.RequestURI() != wantPath {
			t.Errorf("request path = %q, want %q", r.URL.RequestURI(), wantPath)
		}
		w.Write([]byte(payload))
	}))
}

func TestFetchRacecards(t *testing.T) {
	srv := newTestServer(t, "/v1/racecards/free?day=today", `{
		"racecards": [
			{"race_id": "rc_1", "course": "Leopardstown", "off_time": "14:30",
			 "runners": [
				{"horse": "Speedy Horse", "jockey": "A Rider", "trainer": "B Yard"},
				{"horse": "Slow Coach", "status": "Non Runner"}
			]}
		]
	}`)
	defer srv.Close()

	client := racingdata.NewClient("api-user", "api-pass")
	client.SetBaseURL(srv.URL)

	cards, err := client.FetchRacecards(context.Background(), "today")
	if err != nil {
		t.Fatalf("FetchRacecards failed: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 racecard, got %d", len(cards))
	}
	if cards[0].ExternalID() != "rc_1" {
		t.Errorf("ExternalID() = %q, want rc_1", cards[0].ExternalID())
	}
	if len(cards[0].Runners) != 2 {
		t.Fatalf("expected 2 runners, got %d", len(cards[0].Runners))
	}
	if !cards[0].Runners[1].Withdrawn() {
		t.Error("Non Runner status should report Withdrawn()")
	}
	if cards[0].Runners[0].Withdrawn() {
		t.Error("active runner wrongly reported Withdrawn()")
	}
}

func TestFetchResults(t *testing.T) {
	srv := newTestServer(t, "/v1/results/today/free", `{
		"results": [
			{"race_id": "rc_1", "course": "Leopardstown",
			 "runners": [
				{"horse": "Speedy Horse", "position": "1"},
				{"horse": "Slow Coach", "position": "2"}
			]}
		]
	}`)
	defer srv.Close()

	client := racingdata.NewClient("api-user", "api-pass")
	client.SetBaseURL(srv.URL)

	results, err := client.FetchResults(context.Background(), "today")
	if err != nil {
		t.Fatalf("FetchResults failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Runners[0].DisplayName() != "Speedy Horse" {
		t.Errorf("winner name = %q", results[0].Runners[0].DisplayName())
	}
}

func TestProxyPassesStatusThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "no such meeting"}`))
	}))
	defer srv.Close()

	client := racingdata.NewClient("api-user", "api-pass")
	client.SetBaseURL(srv.URL)

	status, body, err := client.Proxy(context.Background(), "/courses/unknown")
	if err != nil {
		t.Fatalf("Proxy failed: %v", err)
	}
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	if string(body) != `{"error": "no such meeting"}` {
		t.Errorf("body passed through incorrectly: %s", body)
	}
}

func TestFetchRacecards_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := racingdata.NewClient("api-user", "api-pass")
	client.SetBaseURL(srv.URL)

	if _, err := client.FetchRacecards(context.Background(), "today"); err == nil {
		t.Fatal("expected error on non-200 upstream status")
	}
}
