package image

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"deckforge/internal/domain"
	"deckforge/internal/storage"
)

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network unreachable")
}

type fakeProvider struct {
	name  string
	ready bool
	calls int
	fetch func() (*domain.ImageResult, error)
}

func (p *fakeProvider) Name() string { return p.name }
func (p *fakeProvider) Ready() bool  { return p.ready }
func (p *fakeProvider) Fetch(ctx context.Context, query string, dims Dimensions) (*domain.ImageResult, error) {
	p.calls++
	if p.fetch != nil {
		return p.fetch()
	}
	return nil, errors.New("not implemented")
}

func okProvider(name, path string) *fakeProvider {
	return &fakeProvider{name: name, ready: true, fetch: func() (*domain.ImageResult, error) {
		return &domain.ImageResult{Path: path}, nil
	}}
}

func failProvider(name string, err error) *fakeProvider {
	return &fakeProvider{name: name, ready: true, fetch: func() (*domain.ImageResult, error) {
		return nil, err
	}}
}

func newChainFetcher(t *testing.T, table *StateTable, providers ...Provider) *Fetcher {
	t.Helper()
	f, err := NewFetcher(FetcherOptions{Providers: providers, Table: table})
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}
	return f
}

func TestFetchFirstSuccessWins(t *testing.T) {
	first := okProvider("first", "/tmp/a.jpg")
	second := okProvider("second", "/tmp/b.jpg")
	f := newChainFetcher(t, nil, first, second)

	result := f.Fetch(context.Background(), "mountains", DefaultDimensions)
	if result == nil || result.Path != "/tmp/a.jpg" {
		t.Fatalf("result = %+v, want path /tmp/a.jpg", result)
	}
	if second.calls != 0 {
		t.Fatalf("second.calls = %d, want 0", second.calls)
	}
}

func TestFetchBlankQueryReturnsNil(t *testing.T) {
	first := okProvider("first", "/tmp/a.jpg")
	f := newChainFetcher(t, nil, first)
	if result := f.Fetch(context.Background(), "   ", DefaultDimensions); result != nil {
		t.Fatalf("result = %+v, want nil", result)
	}
	if first.calls != 0 {
		t.Fatal("no provider should be consulted for a blank query")
	}
}

func TestFetchSkipsUnreadyProviders(t *testing.T) {
	keyless := &fakeProvider{name: "unsplash", ready: false}
	fallback := okProvider("picsum", "/tmp/p.jpg")
	f := newChainFetcher(t, nil, keyless, fallback)

	result := f.Fetch(context.Background(), "city", DefaultDimensions)
	if result == nil || result.Path != "/tmp/p.jpg" {
		t.Fatalf("result = %+v, want fallback path", result)
	}
	if keyless.calls != 0 {
		t.Fatal("unready provider must not be called")
	}
}

func TestFetchQuotaFailureGetsLongCooldown(t *testing.T) {
	table := NewStateTable()
	quota := failProvider("unsplash", ErrQuotaExhausted)
	transient := failProvider("pexels", errors.New("asset host returned 502"))
	fallback := okProvider("picsum", "/tmp/p.jpg")
	f := newChainFetcher(t, table, quota, transient, fallback)

	if result := f.Fetch(context.Background(), "ocean", DefaultDimensions); result == nil {
		t.Fatal("expected the fallback to produce a result")
	}

	quotaDeadline := table.DisabledUntil("unsplash")
	transientDeadline := table.DisabledUntil("pexels")
	if quotaDeadline.IsZero() || transientDeadline.IsZero() {
		t.Fatal("both failing providers should be in cooldown")
	}
	gap := quotaDeadline.Sub(transientDeadline)
	if gap < 50*time.Minute {
		t.Fatalf("quota cooldown exceeds transient cooldown by %v, want ~55m", gap)
	}
}

func TestFetchNoResultsDoesNotTripCooldown(t *testing.T) {
	table := NewStateTable()
	empty := failProvider("unsplash", fmt.Errorf("unsplash: %w for %q", errNoResults, "quokka macro photography"))
	fallback := okProvider("picsum", "/tmp/p.jpg")
	f := newChainFetcher(t, table, empty, fallback)

	if result := f.Fetch(context.Background(), "quokka macro photography", DefaultDimensions); result == nil {
		t.Fatal("expected the fallback to produce a result")
	}
	if !table.DisabledUntil("unsplash").IsZero() {
		t.Fatal("a no-results reply must not place the provider in cooldown")
	}

	if result := f.Fetch(context.Background(), "sunset beach", DefaultDimensions); result == nil {
		t.Fatal("expected the fallback to produce a result")
	}
	if empty.calls != 2 {
		t.Fatalf("provider attempts = %d, want 2 (still consulted for the next query)", empty.calls)
	}
}

func TestFetchSkipsProvidersInCooldown(t *testing.T) {
	table := NewStateTable()
	table.Disable("unsplash", time.Hour)
	cooled := okProvider("unsplash", "/tmp/a.jpg")
	next := okProvider("pexels", "/tmp/b.jpg")
	f := newChainFetcher(t, table, cooled, next)

	result := f.Fetch(context.Background(), "forest", DefaultDimensions)
	if result == nil || result.Path != "/tmp/b.jpg" {
		t.Fatalf("result = %+v, want path /tmp/b.jpg", result)
	}
	if cooled.calls != 0 {
		t.Fatal("provider in cooldown must be skipped")
	}
}

func TestFetchLastProviderIgnoresCooldown(t *testing.T) {
	table := NewStateTable()
	table.Disable("picsum", time.Hour)
	anchor := okProvider("picsum", "/tmp/p.jpg")
	f := newChainFetcher(t, table, failProvider("pexels", errors.New("boom")), anchor)

	result := f.Fetch(context.Background(), "desert", DefaultDimensions)
	if result == nil || result.Path != "/tmp/p.jpg" {
		t.Fatalf("result = %+v, want the anchor's result despite its cooldown", result)
	}
}

func TestFetchLastProviderFailureReturnsNilWithoutCooldown(t *testing.T) {
	table := NewStateTable()
	anchor := failProvider("picsum", errors.New("boom"))
	f := newChainFetcher(t, table, anchor)

	if result := f.Fetch(context.Background(), "desert", DefaultDimensions); result != nil {
		t.Fatalf("result = %+v, want nil", result)
	}
	if !table.DisabledUntil("picsum").IsZero() {
		t.Fatal("the final provider must never be placed in cooldown")
	}
}

func TestDefaultChainFallsThroughToPlaceholder(t *testing.T) {
	cache, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	f, err := NewFetcher(FetcherOptions{
		Cache:          cache,
		PlaceholderDir: t.TempDir(),
		HTTPClient:     &http.Client{Transport: failingTransport{}},
	})
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	result := f.Fetch(context.Background(), "deep sea creatures", DefaultDimensions)
	if result == nil {
		t.Fatal("expected the placeholder to produce a result")
	}
	if result.Credit == nil || result.Credit.Text != "Local Placeholder" {
		t.Fatalf("credit = %+v, want the local placeholder credit", result.Credit)
	}
}

func TestFetchCancelledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &fakeProvider{name: "first", ready: true, fetch: func() (*domain.ImageResult, error) {
		cancel()
		return nil, context.Canceled
	}}
	second := okProvider("second", "/tmp/b.jpg")
	f := newChainFetcher(t, nil, first, second)

	if result := f.Fetch(ctx, "query", DefaultDimensions); result != nil {
		t.Fatalf("result = %+v, want nil after cancellation", result)
	}
	if second.calls != 0 {
		t.Fatal("chain must stop once the context is cancelled")
	}
}
