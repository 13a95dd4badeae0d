package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spigell/expert-scout/internal/domains"
	"github.com/spigell/expert-scout/internal/filtering"
	"github.com/spigell/expert-scout/internal/github"
	"github.com/spigell/expert-scout/internal/linkedin"
	"github.com/spigell/expert-scout/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type pageKey struct {
	domain   string
	location string
	page     int
}

type fakeFinder struct {
	pages map[pageKey][]string
	calls []pageKey
	hook  func(pageKey)
}

func (f *fakeFinder) Find(ctx context.Context, location string, spec domains.Spec, page int) ([]github.Identity, error) {
	key := pageKey{spec.Label, location, page}
	f.calls = append(f.calls, key)
	if f.hook != nil {
		f.hook(key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []github.Identity
	for _, login := range f.pages[key] {
		out = append(out, github.Identity{Login: login})
	}
	return out, nil
}

type fakeEnricher struct {
	users   map[string]*github.User
	fetched map[string]int
}

func newFakeEnricher() *fakeEnricher {
	return &fakeEnricher{users: map[string]*github.User{}, fetched: map[string]int{}}
}

func (e *fakeEnricher) add(login string, followers, repos int, bio string) {
	e.users[login] = &github.User{Login: login, Followers: followers, PublicRepos: repos, Bio: bio, HTMLURL: "https://github.com/" + login}
}

func (e *fakeEnricher) Fetch(ctx context.Context, login string) (*github.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.fetched[login]++
	u, ok := e.users[login]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type failingStore struct {
	*store.Memory
}

func (failingStore) Upsert(context.Context, store.Record) error {
	return errors.New("server selection timeout")
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func catalog(t *testing.T, labels ...string) *domains.Catalog {
	t.Helper()
	specs := make([]domains.Spec, 0, len(labels))
	for _, l := range labels {
		specs = append(specs, domains.Spec{Label: l, BioKeywords: []string{l}})
	}
	c, err := domains.New(specs)
	require.NoError(t, err)
	return c
}

func postfetch(t *testing.T) []filtering.Filter {
	t.Helper()
	steps := []filtering.Filter{filtering.NewActivity(), filtering.NewRelevance()}
	require.NoError(t, filtering.Validate(&filtering.Config{
		MinFollowers:   filtering.DefaultMinFollowers,
		MinPublicRepos: filtering.DefaultMinPublicRepos,
		RelaxedScore:   filtering.DefaultRelaxedScore,
	}, steps))
	return steps
}

func newRunner(t *testing.T, cfg Config, deps Deps) *Runner {
	t.Helper()
	if deps.Postfetch == nil {
		deps.Postfetch = postfetch(t)
	}
	r, err := New(cfg, deps)
	require.NoError(t, err)
	return r.WithShuffle(func([]string) {}).WithClock(func() time.Time { return fixedNow })
}

func testConfig(locations ...string) Config {
	cfg := DefaultConfig()
	cfg.Locations = locations
	return cfg
}

func usernames(recs []store.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Username)
	}
	return out
}

func TestRunRanksAndCapsPerDomain(t *testing.T) {
	finder := &fakeFinder{pages: map[pageKey][]string{
		{"go", "mysuru", 1}: {"low", "top", "mid", "tie"},
	}}
	enricher := newFakeEnricher()
	enricher.add("low", 5, 10, "go")   // 10+10+5+5 = 30
	enricher.add("top", 150, 60, "go") // 30+25+5+5 = 65
	enricher.add("mid", 20, 30, "go")  // 20+20+5+5 = 50
	enricher.add("tie", 20, 30, "go")  // 50, encountered after mid

	mem := store.NewMemory()
	cfg := testConfig("mysuru")
	cfg.MaxPerDomain = 3

	r := newRunner(t, cfg, Deps{Catalog: catalog(t, "go"), Finder: finder, Enricher: enricher, Store: mem})

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"top", "mid", "tie"}, usernames(mem.Records()))
	require.Len(t, summary.Domains, 1)
	assert.Equal(t, DomainStats{Domain: "go", Checked: 4, Candidates: 4, Saved: 3, WithoutLink: 3}, summary.Domains[0])
	assert.Equal(t, 3, summary.TotalSaved)
}

func TestRunRespectsGlobalCap(t *testing.T) {
	finder := &fakeFinder{pages: map[pageKey][]string{
		{"a", "hubli", 1}: {"a1", "a2", "a3"},
		{"b", "hubli", 1}: {"b1", "b2", "b3"},
		{"c", "hubli", 1}: {"c1"},
	}}
	enricher := newFakeEnricher()
	for _, l := range []string{"a1", "a2", "a3", "b1", "b2", "b3", "c1"} {
		enricher.add(l, 50, 50, l[:1])
	}

	mem := store.NewMemory()
	cfg := testConfig("hubli")
	cfg.MaxPerDomain = 2
	cfg.MaxTotal = 3

	r := newRunner(t, cfg, Deps{Catalog: catalog(t, "a", "b", "c"), Finder: finder, Enricher: enricher, Store: mem})

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "a2", "b1"}, usernames(mem.Records()))
	assert.Equal(t, 3, summary.TotalSaved)
	require.Len(t, summary.Domains, 2, "third domain must not be processed once the global cap is hit")
	assert.Equal(t, 2, summary.Domains[0].Saved)
	assert.Equal(t, 1, summary.Domains[1].Saved)
	assert.Zero(t, enricher.fetched["c1"])
}

func TestRunExcludesInactiveProfilesRegardlessOfScore(t *testing.T) {
	finder := &fakeFinder{pages: map[pageKey][]string{
		{"go", "mysuru", 1}: {"quiet", "active"},
	}}
	enricher := newFakeEnricher()
	enricher.add("quiet", 3, 500, "go go go")
	enricher.add("active", 10, 10, "go")

	mem := store.NewMemory()
	r := newRunner(t, testConfig("mysuru"), Deps{Catalog: catalog(t, "go"), Finder: finder, Enricher: enricher, Store: mem})

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"active"}, usernames(mem.Records()))
}

func TestRunFetchesEachIdentityOnce(t *testing.T) {
	finder := &fakeFinder{pages: map[pageKey][]string{
		{"a", "mysuru", 1}: {"dup", "x"},
		{"a", "hubli", 1}:  {"dup", "y"},
		{"b", "mysuru", 1}: {"dup"},
	}}
	enricher := newFakeEnricher()
	enricher.add("dup", 50, 50, "a b")
	enricher.add("x", 50, 50, "a")
	enricher.add("y", 50, 50, "a")

	mem := store.NewMemory()
	r := newRunner(t, testConfig("mysuru", "hubli"), Deps{Catalog: catalog(t, "a", "b"), Finder: finder, Enricher: enricher, Store: mem})

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, enricher.fetched["dup"])
	rec, ok := mem.Get("dup")
	require.True(t, ok)
	assert.Equal(t, "a", rec.Domain)
}

func TestRunPaginationAndBudget(t *testing.T) {
	t.Run("stops at first empty page", func(t *testing.T) {
		finder := &fakeFinder{pages: map[pageKey][]string{
			{"go", "mysuru", 1}: {"u1"},
		}}
		r := newRunner(t, testConfig("mysuru"), Deps{Catalog: catalog(t, "go"), Finder: finder, Enricher: newFakeEnricher(), Store: store.NewMemory()})

		_, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []pageKey{{"go", "mysuru", 1}, {"go", "mysuru", 2}}, finder.calls)
	})

	t.Run("stops at max pages", func(t *testing.T) {
		finder := &fakeFinder{pages: map[pageKey][]string{}}
		for p := 1; p <= 5; p++ {
			finder.pages[pageKey{"go", "mysuru", p}] = []string{fmt.Sprintf("p%d", p)}
		}
		cfg := testConfig("mysuru")
		cfg.MaxPagesPerSearch = 2

		r := newRunner(t, cfg, Deps{Catalog: catalog(t, "go"), Finder: finder, Enricher: newFakeEnricher(), Store: store.NewMemory()})

		_, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Len(t, finder.calls, 2)
	})

	t.Run("stops when the profiles budget is spent", func(t *testing.T) {
		finder := &fakeFinder{pages: map[pageKey][]string{
			{"go", "mysuru", 1}: {"u1", "u2", "u3"},
			{"go", "hubli", 1}:  {"u4"},
		}}
		enricher := newFakeEnricher()
		cfg := testConfig("mysuru", "hubli")
		cfg.MaxProfilesToCheck = 2

		r := newRunner(t, cfg, Deps{Catalog: catalog(t, "go"), Finder: finder, Enricher: enricher, Store: store.NewMemory()})

		summary, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Domains[0].Checked)
		assert.Equal(t, map[string]int{"u1": 1, "u2": 1}, enricher.fetched)
		assert.Equal(t, []pageKey{{"go", "mysuru", 1}}, finder.calls)
	})
}

func TestRunIsIdempotent(t *testing.T) {
	pages := map[pageKey][]string{{"go", "mysuru", 1}: {"alice"}}
	enricher := newFakeEnricher()
	enricher.add("alice", 50, 50, "go")
	enricher.users["alice"].Blog = "https://www.linkedin.com/in/alice"

	mem := store.NewMemory()
	links := linkedin.NewResolver(linkedin.Config{}, nil)

	first := newRunner(t, testConfig("mysuru"), Deps{Catalog: catalog(t, "go"), Finder: &fakeFinder{pages: pages}, Enricher: enricher, Links: links, Store: mem})
	_, err := first.Run(context.Background())
	require.NoError(t, err)
	before, _ := mem.Get("alice")

	later := fixedNow.Add(time.Hour)
	second := newRunner(t, testConfig("mysuru"), Deps{Catalog: catalog(t, "go"), Finder: &fakeFinder{pages: pages}, Enricher: enricher, Links: links, Store: mem}).
		WithClock(func() time.Time { return later })
	_, err = second.Run(context.Background())
	require.NoError(t, err)
	after, _ := mem.Get("alice")

	assert.Len(t, mem.Records(), 1)
	assert.Equal(t, 2, mem.Writes())
	assert.Equal(t, later, after.ScrapedAt)
	after.ScrapedAt = before.ScrapedAt
	assert.Equal(t, before, after)
	assert.True(t, after.HasLinkedIn)
	assert.Equal(t, "https://www.linkedin.com/in/alice", after.LinkedInURL)
}

func TestRunSkipsExistingRecords(t *testing.T) {
	finder := &fakeFinder{pages: map[pageKey][]string{{"go", "mysuru", 1}: {"stored", "fresh"}}}
	enricher := newFakeEnricher()
	enricher.add("stored", 50, 50, "go")
	enricher.add("fresh", 50, 50, "go")

	mem := store.NewMemory()
	require.NoError(t, mem.Upsert(context.Background(), store.Record{Username: "stored"}))

	r := newRunner(t, testConfig("mysuru"), Deps{
		Catalog:  catalog(t, "go"),
		Finder:   finder,
		Enricher: enricher,
		Store:    mem,
		Prefetch: []filtering.Filter{filtering.NewExistingRecords(true)},
	})

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, enricher.fetched["stored"])
	assert.Equal(t, 1, summary.Domains[0].Checked)
}

func TestRecordFallbacks(t *testing.T) {
	finder := &fakeFinder{pages: map[pageKey][]string{{"go", "dharwad", 1}: {"anon"}}}
	enricher := newFakeEnricher()
	enricher.add("anon", 50, 50, "go")

	mem := store.NewMemory()
	r := newRunner(t, testConfig("dharwad"), Deps{Catalog: catalog(t, "go"), Finder: finder, Enricher: enricher, Store: mem})

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	rec, ok := mem.Get("anon")
	require.True(t, ok)
	assert.Equal(t, "anon", rec.Name)
	assert.Equal(t, "dharwad", rec.Location)
	assert.Equal(t, "https://github.com/anon", rec.ProfileURL)
	assert.False(t, rec.HasLinkedIn)
	assert.Equal(t, fixedNow, rec.ScrapedAt)
	assert.Equal(t, 60, rec.Score)
}

func TestRunInterruptKeepsWrittenRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	finder := &fakeFinder{
		pages: map[pageKey][]string{{"a", "mysuru", 1}: {"a1"}, {"b", "mysuru", 1}: {"b1"}},
		hook: func(k pageKey) {
			if k.domain == "b" {
				cancel()
			}
		},
	}
	enricher := newFakeEnricher()
	enricher.add("a1", 50, 50, "a")
	enricher.add("b1", 50, 50, "b")

	mem := store.NewMemory()
	r := newRunner(t, testConfig("mysuru"), Deps{Catalog: catalog(t, "a", "b"), Finder: finder, Enricher: enricher, Store: mem})

	summary, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, summary.Interrupted)
	assert.Equal(t, []string{"a1"}, usernames(mem.Records()))
}

func TestRunStoreFailureIsFatal(t *testing.T) {
	finder := &fakeFinder{pages: map[pageKey][]string{{"a", "mysuru", 1}: {"a1"}, {"b", "mysuru", 1}: {"b1"}}}
	enricher := newFakeEnricher()
	enricher.add("a1", 50, 50, "a")
	enricher.add("b1", 50, 50, "b")

	r := newRunner(t, testConfig("mysuru"), Deps{Catalog: catalog(t, "a", "b"), Finder: finder, Enricher: enricher, Store: failingStore{store.NewMemory()}})

	summary, err := r.Run(context.Background())
	require.Error(t, err)
	assert.False(t, summary.Interrupted)
	assert.Len(t, summary.Domains, 1)
}

type panickingFinder struct {
	fakeFinder
}

func (p *panickingFinder) Find(ctx context.Context, location string, spec domains.Spec, page int) ([]github.Identity, error) {
	if spec.Label == "a" {
		panic("unexpected payload")
	}
	return p.fakeFinder.Find(ctx, location, spec, page)
}

func TestRunRecoversFromDomainPanic(t *testing.T) {
	core, observed := observer.New(zapcore.ErrorLevel)

	finder := &panickingFinder{fakeFinder{pages: map[pageKey][]string{{"b", "mysuru", 1}: {"b1"}}}}
	enricher := newFakeEnricher()
	enricher.add("b1", 50, 50, "b")

	mem := store.NewMemory()
	r := newRunner(t, testConfig("mysuru"), Deps{Catalog: catalog(t, "a", "b"), Finder: finder, Enricher: enricher, Store: mem, Logger: zap.New(core)})

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, usernames(mem.Records()))
	assert.Len(t, summary.Domains, 2)
	assert.Equal(t, 1, observed.FilterMessageSnippet("[ERROR]").Len())
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{}, Deps{})
	require.Error(t, err)

	_, err = New(DefaultConfig(), Deps{})
	require.Error(t, err)
}

func TestRankIsStable(t *testing.T) {
	cs := []*filtering.Candidate{
		{Identity: github.Identity{Login: "a"}, Score: 10},
		{Identity: github.Identity{Login: "b"}, Score: 30},
		{Identity: github.Identity{Login: "c"}, Score: 10},
		{Identity: github.Identity{Login: "d"}, Score: 30},
	}
	Rank(cs)

	got := make([]string, 0, len(cs))
	for _, c := range cs {
		got = append(got, c.Login())
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, got)
}
