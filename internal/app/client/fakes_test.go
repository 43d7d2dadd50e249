package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"golang.org/x/exp/slog"
)

var errCacheDown = errors.New("disk I/O error")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRemote хранилище строк в памяти с поведением сервера: upsert по id,
// отметки о выполнении по паре (план, тренировка), отказ по внешнему ключу.
type fakeRemote struct {
	mu   sync.Mutex
	rows map[string]map[string]map[string]any

	insertErr    error
	selectErr    error
	failFor      map[string]error
	dropResponse bool
	checkParents bool
	block        chan struct{}
	entered      chan struct{}

	inserts map[string]int
	selects int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		rows:    make(map[string]map[string]map[string]any),
		failFor: make(map[string]error),
		inserts: make(map[string]int),
	}
}

func (f *fakeRemote) Insert(ctx context.Context, collection string, row json.RawMessage) (json.RawMessage, error) {
	f.mu.Lock()
	block, entered := f.block, f.entered
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.inserts[collection]++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if err := f.failFor[collection]; err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(row, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}

	if f.checkParents && collection == CollectionCompletions {
		if planID, _ := fields["plan_id"].(string); planID != "" {
			if _, ok := f.rows[CollectionPlans][planID]; !ok {
				return nil, &StatusError{Status: 424, Detail: "missing plan", kind: ErrReferential}
			}
		}
	}

	table := f.rows[collection]
	if table == nil {
		table = make(map[string]map[string]any)
		f.rows[collection] = table
	}

	key, _ := fields["id"].(string)
	if collection == CollectionCompletions {
		planID, _ := fields["plan_id"].(string)
		workoutID, _ := fields["workout_id"].(string)
		key = planID + "/" + workoutID
		if existing, ok := table[key]; ok {
			fields["id"] = existing["id"]
		}
	}
	table[key] = fields

	if f.dropResponse {
		return nil, fmt.Errorf("%w: соединение разорвано", ErrUnavailable)
	}

	out, _ := json.Marshal(fields)
	return out, nil
}

func (f *fakeRemote) Select(_ context.Context, collection string, filter Filter) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.selects++
	if f.selectErr != nil {
		return nil, f.selectErr
	}

	var out []json.RawMessage
	for _, fields := range f.rows[collection] {
		if owner, _ := fields["owner_id"].(string); filter.OwnerID != "" && owner != filter.OwnerID {
			continue
		}
		data, _ := json.Marshal(fields)
		out = append(out, data)
	}
	return out, nil
}

func (f *fakeRemote) Update(_ context.Context, collection, id string, patch json.RawMessage) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, fields := range f.rows[collection] {
		if fields["id"] != id {
			continue
		}
		var changes map[string]any
		if err := json.Unmarshal(patch, &changes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRejected, err)
		}
		for k, v := range changes {
			fields[k] = v
		}
		out, _ := json.Marshal(fields)
		return out, nil
	}
	return nil, &StatusError{Status: 404, kind: ErrRejected}
}

// putRow кладёт строку на сервер в обход клиента.
func (f *fakeRemote) putRow(collection string, row map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rows[collection] == nil {
		f.rows[collection] = make(map[string]map[string]any)
	}
	id, _ := row["id"].(string)
	f.rows[collection][id] = row
}

func (f *fakeRemote) count(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows[collection])
}

func (f *fakeRemote) insertCalls(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts[collection]
}

func (f *fakeRemote) setInsertErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertErr = err
}

type fakeSession struct {
	mu      sync.Mutex
	token   string
	profile Profile
	err     error
	calls   int
}

func (s *fakeSession) HasSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

func (s *fakeSession) SessionKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "key-" + s.token
}

func (s *fakeSession) CurrentProfile(context.Context) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return Profile{}, s.err
	}
	return s.profile, nil
}

func (s *fakeSession) login(token, profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.profile = Profile{ID: profileID}
	s.err = nil
}

type recordingReporter struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingReporter) Report(op string, err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingReporter) reported() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

type failingCache struct{}

func (failingCache) Get(string) (string, bool, error) { return "", false, errCacheDown }
func (failingCache) Set(string, string) error         { return errCacheDown }
func (failingCache) Remove(string) error              { return errCacheDown }
func (failingCache) Close() error                     { return nil }

type testEnv struct {
	sc       *SyncContext
	cache    Cache
	remote   *fakeRemote
	session  *fakeSession
	reporter *recordingReporter

	mu        sync.Mutex
	triggered []string
}

var testNow = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T, cache Cache) *testEnv {
	t.Helper()

	env := &testEnv{
		cache:    cache,
		remote:   newFakeRemote(),
		session:  &fakeSession{},
		reporter: &recordingReporter{},
	}

	log := discardLogger()
	sc := NewSyncContext(cache, env.remote, env.session, log)
	sc.Reporter = env.reporter
	sc.Identity = NewResolver(cache, env.session, env.reporter, log)
	sc.Now = func() time.Time { return testNow }

	var seq int
	var seqMu sync.Mutex
	sc.NewID = func() string {
		seqMu.Lock()
		defer seqMu.Unlock()
		seq++
		return fmt.Sprintf("local-%d", seq)
	}
	sc.Trigger = func(key string) {
		env.mu.Lock()
		defer env.mu.Unlock()
		env.triggered = append(env.triggered, key)
	}

	env.sc = sc
	return env
}

func (e *testEnv) login(profileID string) {
	e.session.login("token-"+profileID, profileID)
	e.sc.Identity.Forget()
}

func (e *testEnv) triggers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.triggered...)
}
