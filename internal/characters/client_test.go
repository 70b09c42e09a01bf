package characters

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultAPIBase {
		t.Fatalf("url = %q, want %q", u.String(), DefaultAPIBase)
	}

	u, err = parseBaseURL("example.com:1234/api/characters/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Path != "/api/characters" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestParseBaseURL_MissingHostFails(t *testing.T) {
	if _, err := parseBaseURL("http:///api"); err == nil {
		t.Fatalf("parseBaseURL returned nil error, want missing host")
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL + "/api/characters")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestListCharacters_DecodesRecords(t *testing.T) {
	t.Parallel()

	var gotPath, gotAccept, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"id":"a","name":"Dragon King","description":"Rules the deep","image":"http://x/a.jpg",
			 "type":"Boss","category":"boss","rarity":"LEGENDARY","attributes":["fire","flight"],
			 "stats":{"hp":550,"damage":280,"defense":150},"unknown":true},
			{"id":7,"name":"Goblin","description":"Small","image":"http://x/g.jpg"}
		]`)
	})

	records, err := c.ListCharacters(testContext(t), "")
	if err != nil {
		t.Fatalf("ListCharacters returned error: %v", err)
	}
	if gotPath != "/api/characters" || gotAccept != "application/json" || gotQuery != "" {
		t.Fatalf("request path=%q accept=%q query=%q", gotPath, gotAccept, gotQuery)
	}
	if len(records) != 2 {
		t.Fatalf("records len = %d, want 2", len(records))
	}
	if records[0].ID != "a" || records[0].Stats == nil || records[0].Stats.HP != 550 {
		t.Fatalf("records[0] = %#v", records[0])
	}
	if len(records[0].Attributes) != 2 || records[0].Attributes[1] != "flight" {
		t.Fatalf("attributes = %#v", records[0].Attributes)
	}
	if records[1].ID != "7" {
		t.Fatalf("numeric id = %q, want 7", records[1].ID)
	}
}

func TestListCharacters_SendsSearchFilter(t *testing.T) {
	t.Parallel()

	var gotSearch string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotSearch = r.URL.Query().Get("search")
		_, _ = io.WriteString(w, `[]`)
	})

	records, err := c.ListCharacters(testContext(t), "  drag ")
	if err != nil {
		t.Fatalf("ListCharacters returned error: %v", err)
	}
	if gotSearch != "drag" {
		t.Fatalf("search = %q, want drag", gotSearch)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("records = %#v, want empty non-nil", records)
	}
}

func TestListCharacters_ClassifiesFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "http error carries body",
			status: http.StatusServiceUnavailable,
			body:   "upstream down",
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("err = %v, want *HTTPError", err)
				}
				if httpErr.Status != http.StatusServiceUnavailable || httpErr.Body != "upstream down" {
					t.Fatalf("httpErr = %#v", httpErr)
				}
			},
		},
		{
			name:   "object instead of array",
			status: http.StatusOK,
			body:   `{"items":[]}`,
			check: func(t *testing.T, err error) {
				var payloadErr *InvalidPayloadError
				if !errors.As(err, &payloadErr) {
					t.Fatalf("err = %v, want *InvalidPayloadError", err)
				}
			},
		},
		{
			name:   "null body",
			status: http.StatusOK,
			body:   `null`,
			check: func(t *testing.T, err error) {
				var payloadErr *InvalidPayloadError
				if !errors.As(err, &payloadErr) {
					t.Fatalf("err = %v, want *InvalidPayloadError", err)
				}
			},
		},
		{
			name:   "broken json",
			status: http.StatusOK,
			body:   `[{"id":`,
			check: func(t *testing.T, err error) {
				var payloadErr *InvalidPayloadError
				if !errors.As(err, &payloadErr) {
					t.Fatalf("err = %v, want *InvalidPayloadError", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.ListCharacters(testContext(t), "")
			if err == nil {
				t.Fatalf("ListCharacters returned nil error")
			}
			tt.check(t, err)
		})
	}
}

func TestListCharacters_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := NewClient(url)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.ListCharacters(testContext(t), "")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want *NetworkError", err)
	}
}

func TestUpdateCharacter_SendsPatchBody(t *testing.T) {
	t.Parallel()

	var gotMethod, gotContentType string
	var gotBody map[string]string
	var rawBody []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		rawBody, _ = io.ReadAll(r.Body)
		_ = json.Unmarshal(rawBody, &gotBody)
		_, _ = io.WriteString(w, `{"ok":true}`)
	})

	err := c.UpdateCharacter(testContext(t), "a", Fields{Name: "N", Description: "D", Image: "http://x/y.jpg"})
	if err != nil {
		t.Fatalf("UpdateCharacter returned error: %v", err)
	}
	if gotMethod != http.MethodPatch || gotContentType != "application/json" {
		t.Fatalf("method=%q content-type=%q", gotMethod, gotContentType)
	}
	want := map[string]string{"name": "N", "description": "D", "image": "http://x/y.jpg", "id": "a"}
	for k, v := range want {
		if gotBody[k] != v {
			t.Fatalf("body[%s] = %q, want %q (raw %s)", k, gotBody[k], v, rawBody)
		}
	}
	if string(rawBody) != `{"name":"N","description":"D","image":"http://x/y.jpg","id":"a"}` {
		t.Fatalf("raw body = %s", rawBody)
	}
}

func TestUpdateCharacter_NonSuccessCarriesBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = io.WriteString(w, "PATCH not allowed\n")
	})

	err := c.UpdateCharacter(testContext(t), "a", Fields{Name: "N", Description: "D", Image: "I"})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if httpErr.Detail() != "PATCH not allowed" {
		t.Fatalf("Detail = %q, want trimmed body", httpErr.Detail())
	}
}

func TestUpdateCharacter_RequiresID(t *testing.T) {
	c, err := NewClient("")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := c.UpdateCharacter(context.Background(), " ", Fields{}); err == nil {
		t.Fatalf("UpdateCharacter returned nil error, want id required")
	}
}

func TestHTTPError_DetailFallsBackToStatus(t *testing.T) {
	e := &HTTPError{Op: "x", Status: 500}
	if e.Detail() != "Error 500" {
		t.Fatalf("Detail = %q, want Error 500", e.Detail())
	}
}
