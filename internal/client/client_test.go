package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL+"/", StaticCredential("test-key"), WithTimeout(2*time.Second))
}

func TestNormalizeSessionID(t *testing.T) {
	cases := map[string]string{
		"abc":           "abc",
		"sessions/abc":  "abc",
		"/sessions/abc": "abc",
		"  abc  ":       "abc",
		"sessions/":     "",
		"":              "",
	}
	for input, want := range cases {
		if got := NormalizeSessionID(input); got != want {
			t.Fatalf("NormalizeSessionID(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestListActivitiesSendsKeyAndNormalizesID(t *testing.T) {
	var seenURI, seenKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seenURI = r.URL.RequestURI()
		seenKey = r.Header.Get("X-Goog-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"activities":[{"name":"sessions/abc/activities/1","agentMessaged":{"agentMessage":"hi"}}],"nextPageToken":"next"}`))
	})

	page, err := c.ListActivities(context.Background(), "sessions/abc", 0, "")
	if err != nil {
		t.Fatalf("ListActivities: %v", err)
	}
	if seenURI != "/sessions/abc/activities?pageSize=50" {
		t.Fatalf("unexpected request uri: %s", seenURI)
	}
	if seenKey != "test-key" {
		t.Fatalf("expected api key header, got %q", seenKey)
	}
	if len(page.Activities) != 1 || page.NextPageToken != "next" {
		t.Fatalf("unexpected page: %#v", page)
	}
	if page.Activities[0].AgentMessaged == nil || len(page.Activities[0].Raw) == 0 {
		t.Fatalf("expected decoded activity with raw json: %#v", page.Activities[0])
	}
}

func TestListActivitiesPassesPageToken(t *testing.T) {
	var seenQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seenQuery = r.URL.Query().Get("pageToken")
		_, _ = w.Write([]byte(`{"activities":[]}`))
	})
	if _, err := c.ListActivities(context.Background(), "abc", 10, "tok-2"); err != nil {
		t.Fatalf("ListActivities: %v", err)
	}
	if seenQuery != "tok-2" {
		t.Fatalf("expected page token, got %q", seenQuery)
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sessions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type")
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"name":"sessions/new","state":"QUEUED"}`))
	})

	session, err := c.CreateSession(context.Background(), CreateSessionRequest{
		Prompt: "fix the tests",
		Source: "sources/github/acme/api",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ShortID() != "new" {
		t.Fatalf("unexpected session: %#v", session)
	}
	if body["automationMode"] != "AUTO_CREATE_PR" || body["prompt"] != "fix the tests" {
		t.Fatalf("unexpected body: %#v", body)
	}
	sourceContext, _ := body["sourceContext"].(map[string]any)
	repoContext, _ := sourceContext["githubRepoContext"].(map[string]any)
	if sourceContext["source"] != "sources/github/acme/api" || repoContext["startingBranch"] != "main" {
		t.Fatalf("unexpected source context: %#v", sourceContext)
	}
}

func TestCreateSessionRequiresPromptAndSource(t *testing.T) {
	c := New("http://127.0.0.1:1", nil)
	if _, err := c.CreateSession(context.Background(), CreateSessionRequest{Source: "s"}); err == nil {
		t.Fatalf("expected prompt error")
	}
	if _, err := c.CreateSession(context.Background(), CreateSessionRequest{Prompt: "p"}); err == nil {
		t.Fatalf("expected source error")
	}
}

func TestSendMessageAndApprovePlanPaths(t *testing.T) {
	var paths []string
	var prompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if strings.HasSuffix(r.URL.Path, ":sendMessage") {
			data, _ := io.ReadAll(r.Body)
			var req SendMessageRequest
			_ = json.Unmarshal(data, &req)
			prompt = req.Prompt
		}
		_, _ = w.Write([]byte(`{}`))
	})

	if err := c.SendMessage(context.Background(), "sessions/s1", "looks good"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if err := c.ApprovePlan(context.Background(), "s1"); err != nil {
		t.Fatalf("ApprovePlan: %v", err)
	}
	want := []string{"POST /sessions/s1:sendMessage", "POST /sessions/s1:approvePlan"}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("unexpected paths: %v", paths)
	}
	if prompt != "looks good" {
		t.Fatalf("unexpected prompt: %q", prompt)
	}
}

func TestEmptySessionIDRejectedBeforeRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	if _, err := c.GetSession(context.Background(), "sessions/"); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	if err := c.ApprovePlan(context.Background(), " "); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	if called {
		t.Fatalf("no request should be sent for an empty id")
	}
}

func TestNon2xxIsRequestFailedWithAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	})
	_, err := c.ListSources(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	apiErr := AsAPIError(err)
	if apiErr == nil || apiErr.StatusCode != http.StatusForbidden || apiErr.Message != "API key not valid" {
		t.Fatalf("unexpected api error: %#v", apiErr)
	}
}

func TestNon2xxWithoutBodyUsesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.ListSessions(context.Background(), 5)
	apiErr := AsAPIError(err)
	if apiErr == nil || apiErr.StatusCode != http.StatusBadGateway || !strings.Contains(apiErr.Message, "502") {
		t.Fatalf("unexpected api error: %#v", apiErr)
	}
}

func TestTransportFailureIsRequestFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	c := New(baseURL, nil, WithTimeout(time.Second))
	_, err := c.ListSessions(context.Background(), 0)
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if AsAPIError(err) != nil {
		t.Fatalf("transport failure should not carry an APIError")
	}
}

func TestMalformedBaseURLIsRequestFailed(t *testing.T) {
	c := New("http://bad host\x7f", StaticCredential("test-key"))
	_, err := c.ListSources(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestMissingCredentialOmitsHeader(t *testing.T) {
	var hasKey bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasKey = r.Header["X-Goog-Api-Key"]
		_, _ = w.Write([]byte(`{"sessions":[]}`))
	}))
	defer server.Close()

	c := New(server.URL, StaticCredential(""))
	if _, err := c.ListSessions(context.Background(), 0); err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if hasKey {
		t.Fatalf("expected no api key header")
	}
}
