package outline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"deckforge/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func chatReply(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

const outlineJSON = `{"title":"Solar Power","subtitle":"An overview","slides":[{"title":"Basics","bullets":["one","two"],"image_query":"solar panels"}]}`

func newTestAcquirer(t *testing.T, models []string, rt roundTripFunc) *Acquirer {
	t.Helper()
	a, err := NewAcquirer(Options{
		APIKey:     "test-key",
		Models:     models,
		HTTPClient: &http.Client{Transport: rt},
		RetryDelay: 0,
	})
	if err != nil {
		t.Fatalf("NewAcquirer returned error: %v", err)
	}
	a.retryDelay = 0
	return a
}

func TestAcquireWalksCandidatesInOrder(t *testing.T) {
	var attempted []string
	a := newTestAcquirer(t, []string{"model-a", "model-b", "model-c"}, func(r *http.Request) (*http.Response, error) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		attempted = append(attempted, req.Model)
		switch req.Model {
		case "model-a":
			return jsonResponse(http.StatusInternalServerError, `{"error":"down"}`), nil
		case "model-b":
			return jsonResponse(http.StatusTooManyRequests, `{"error":"slow down"}`), nil
		default:
			return jsonResponse(http.StatusOK, chatReply(outlineJSON)), nil
		}
	})

	doc, err := a.Acquire(context.Background(), "solar power", 1, "English")
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if doc.Title != "Solar Power" {
		t.Fatalf("Title = %q, want %q", doc.Title, "Solar Power")
	}
	if len(doc.Units) != 1 || doc.Units[0].ImageQuery != "solar panels" {
		t.Fatalf("unexpected units: %+v", doc.Units)
	}
	want := []string{"model-a", "model-b", "model-c"}
	if len(attempted) != len(want) {
		t.Fatalf("attempted %v, want %v", attempted, want)
	}
	for i := range want {
		if attempted[i] != want[i] {
			t.Fatalf("attempted[%d] = %q, want %q", i, attempted[i], want[i])
		}
	}
}

func TestAcquireEachCandidateTriedOnce(t *testing.T) {
	calls := 0
	a := newTestAcquirer(t, []string{"m1", "m2"}, func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusTooManyRequests, "{}"), nil
	})

	_, err := a.Acquire(context.Background(), "topic", 3, "English")
	if !errors.Is(err, domain.ErrNoOutline) {
		t.Fatalf("err = %v, want ErrNoOutline", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestAcquireRejectsBlankTopic(t *testing.T) {
	a := newTestAcquirer(t, []string{"m1"}, func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if _, err := a.Acquire(context.Background(), "   ", 3, "English"); !errors.Is(err, domain.ErrInvalidTopic) {
		t.Fatalf("err = %v, want ErrInvalidTopic", err)
	}
}

func TestAcquireTransportErrorMovesToNextCandidate(t *testing.T) {
	a := newTestAcquirer(t, []string{"m1", "m2"}, func(r *http.Request) (*http.Response, error) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model == "m1" {
			return nil, errors.New("connection refused")
		}
		return jsonResponse(http.StatusOK, chatReply(outlineJSON)), nil
	})
	doc, err := a.Acquire(context.Background(), "topic", 1, "English")
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if doc.Title == "" {
		t.Fatal("expected a parsed outline from the second candidate")
	}
}

func TestAcquireUnparseableReplySkipsCandidate(t *testing.T) {
	a := newTestAcquirer(t, []string{"m1", "m2"}, func(r *http.Request) (*http.Response, error) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model == "m1" {
			return jsonResponse(http.StatusOK, chatReply("Sure! Here is your outline in prose.")), nil
		}
		return jsonResponse(http.StatusOK, chatReply("```json\n"+outlineJSON+"\n```")), nil
	})
	doc, err := a.Acquire(context.Background(), "topic", 1, "English")
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if doc.Title != "Solar Power" {
		t.Fatalf("Title = %q, want %q", doc.Title, "Solar Power")
	}
}

func TestAcquireSendsAuthAndAttribution(t *testing.T) {
	a := newTestAcquirer(t, []string{"m1"}, func(r *http.Request) (*http.Response, error) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("Authorization = %q, want %q", got, "Bearer test-key")
		}
		if r.Header.Get("HTTP-Referer") == "" || r.Header.Get("X-Title") == "" {
			t.Fatal("expected attribution headers")
		}
		return jsonResponse(http.StatusOK, chatReply(outlineJSON)), nil
	})
	if _, err := a.Acquire(context.Background(), "topic", 1, "English"); err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
}

func TestTrimCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{}", "{}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```JSON\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tc := range cases {
		if got := trimCodeFence(tc.in); got != tc.want {
			t.Fatalf("trimCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
