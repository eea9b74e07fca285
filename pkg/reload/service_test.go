package reload_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elmateo487/bdui-compact-kanban/internal/datasource"
	"github.com/elmateo487/bdui-compact-kanban/pkg/model"
	"github.com/elmateo487/bdui-compact-kanban/pkg/reload"
	"github.com/elmateo487/bdui-compact-kanban/pkg/testutil"
)

// fakeLoader counts loads, tracks overlap and can be made to block.
type fakeLoader struct {
	calls   atomic.Int32
	active  atomic.Int32
	overlap atomic.Bool
	gate    chan struct{}
	err     error
}

func (f *fakeLoader) load(ctx context.Context) (*model.Graph, error) {
	f.calls.Add(1)
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.active.Add(-1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.Graph{ByID: map[string]*model.Issue{}}, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestReload_ManualPublishesToSubscribers(t *testing.T) {
	f := &fakeLoader{}
	s := reload.New(f.load)
	defer s.Stop()

	var got []reload.Update
	var mu sync.Mutex
	s.Subscribe(func(u reload.Update) {
		mu.Lock()
		got = append(got, u)
		mu.Unlock()
	})

	upd, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if upd.Graph == nil || !upd.Manual || upd.Generation != 1 {
		t.Errorf("update = %+v", upd)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Generation != upd.Generation {
		t.Errorf("subscriber got %+v", got)
	}
	if s.Generation() != 1 {
		t.Errorf("Generation() = %d", s.Generation())
	}
}

func TestReload_FailedLoadPublishesStorageUnavailable(t *testing.T) {
	f := &fakeLoader{err: errors.New("disk on fire")}
	s := reload.New(f.load)
	defer s.Stop()

	var published reload.Update
	s.Subscribe(func(u reload.Update) { published = u })

	_, err := s.Reload(context.Background())
	if !errors.Is(err, datasource.ErrStorageUnavailable) {
		t.Fatalf("err = %v, want ErrStorageUnavailable", err)
	}
	if published.Graph != nil || published.Err == nil {
		t.Errorf("published = %+v, want error and no graph", published)
	}
}

func TestReload_UnsubscribeStopsDelivery(t *testing.T) {
	f := &fakeLoader{}
	s := reload.New(f.load)
	defer s.Stop()

	var n atomic.Int32
	unsub := s.Subscribe(func(reload.Update) { n.Add(1) })

	if _, err := s.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	unsub()
	unsub()
	if _, err := s.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n.Load() != 1 {
		t.Errorf("deliveries = %d, want 1", n.Load())
	}
}

func TestReload_UnsubscribeDuringDispatch(t *testing.T) {
	f := &fakeLoader{}
	s := reload.New(f.load)
	defer s.Stop()

	var first, second atomic.Int32
	var unsubFirst func()
	unsubFirst = s.Subscribe(func(reload.Update) {
		first.Add(1)
		unsubFirst()
	})
	s.Subscribe(func(reload.Update) { second.Add(1) })

	for i := 0; i < 2; i++ {
		if _, err := s.Reload(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if first.Load() != 1 || second.Load() != 2 {
		t.Errorf("first=%d second=%d, want 1 and 2", first.Load(), second.Load())
	}
}

func TestReload_PanickingSubscriberIsSkipped(t *testing.T) {
	f := &fakeLoader{}
	var panics []*reload.SubscriberPanic
	s := reload.New(f.load, reload.WithPanicHandler(func(p *reload.SubscriberPanic) {
		panics = append(panics, p)
	}))
	defer s.Stop()

	var after atomic.Int32
	s.Subscribe(func(reload.Update) { panic("boom") })
	s.Subscribe(func(reload.Update) { after.Add(1) })

	if _, err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if after.Load() != 1 {
		t.Error("subscriber after the panicking one was not called")
	}
	if len(panics) != 1 || panics[0].Value != "boom" {
		t.Fatalf("panics = %+v", panics)
	}
	if panics[0].Error() == "" || len(panics[0].Stack) == 0 {
		t.Error("panic report missing detail")
	}
}

func TestReload_ConcurrentManualReloadsDoNotOverlap(t *testing.T) {
	f := &fakeLoader{gate: make(chan struct{})}
	s := reload.New(f.load)
	defer s.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Reload(context.Background()); err != nil {
				t.Errorf("Reload: %v", err)
			}
		}()
	}
	// Let the callers pile up behind the first load.
	time.Sleep(50 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	if f.overlap.Load() {
		t.Error("loads overlapped")
	}
	if c := f.calls.Load(); c < 1 || c > 5 {
		t.Errorf("calls = %d", c)
	}
}

func TestReload_TriggerWhileLoadingRunsOneFollowUp(t *testing.T) {
	f := &fakeLoader{gate: make(chan struct{})}
	s := reload.New(f.load)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	var published atomic.Int32
	s.Subscribe(func(reload.Update) { published.Add(1) })

	s.Trigger()
	if !waitFor(t, time.Second, func() bool { return f.calls.Load() == 1 }) {
		t.Fatal("first load did not start")
	}
	if s.State() != reload.StateLoading {
		t.Errorf("state = %v, want loading", s.State())
	}

	// Three changes while loading collapse into one follow-up.
	s.Trigger()
	s.Trigger()
	s.Trigger()
	close(f.gate)

	if !waitFor(t, time.Second, func() bool { return s.State() == reload.StateIdle }) {
		t.Fatal("service did not return to idle")
	}
	if c := f.calls.Load(); c != 2 {
		t.Errorf("loads = %d, want 2", c)
	}
	if published.Load() != 2 {
		t.Errorf("published = %d, want 2", published.Load())
	}
	if f.overlap.Load() {
		t.Error("loads overlapped")
	}
}

func TestReload_TriggerBeforeStartIsIgnored(t *testing.T) {
	f := &fakeLoader{}
	s := reload.New(f.load)
	defer s.Stop()

	s.Trigger()
	time.Sleep(20 * time.Millisecond)
	if f.calls.Load() != 0 {
		t.Error("Trigger before Start loaded")
	}
}

func TestReload_StopDiscardsInFlightResult(t *testing.T) {
	f := &fakeLoader{gate: make(chan struct{})}
	s := reload.New(f.load)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	var published atomic.Int32
	s.Subscribe(func(reload.Update) { published.Add(1) })

	s.Trigger()
	if !waitFor(t, time.Second, func() bool { return f.calls.Load() == 1 }) {
		t.Fatal("load did not start")
	}
	s.Stop()
	s.Stop()

	if published.Load() != 0 {
		t.Errorf("published %d updates after Stop", published.Load())
	}
	if s.State() != reload.StateStopped {
		t.Errorf("state = %v", s.State())
	}
	if _, err := s.Reload(context.Background()); !errors.Is(err, reload.ErrStopped) {
		t.Errorf("Reload after Stop err = %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, reload.ErrStopped) {
		t.Errorf("Start after Stop err = %v", err)
	}
}

func TestReload_StartIsIdempotent(t *testing.T) {
	beadsDir := testutil.TempBeadsDir(t)
	db := testutil.WriteSQLite(t, beadsDir, testutil.NewSnapshot().Issue("A", model.StatusOpen, 1).Build())

	s := reload.New((&fakeLoader{}).load, reload.WithWatchPaths(db+"-wal", db))
	defer s.Stop()
	for i := 0; i < 2; i++ {
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("Start #%d: %v", i+1, err)
		}
	}
	if !s.Watching() {
		t.Error("watcher not running")
	}
}

func TestReload_SQLiteWriteIsPickedUp(t *testing.T) {
	beadsDir := testutil.TempBeadsDir(t)
	testutil.WriteSQLite(t, beadsDir, testutil.NewSnapshot().
		Issue("A", model.StatusOpen, 0).
		Issue("B", model.StatusOpen, 0).
		Blocks("A", "B").
		Build())

	src, err := datasource.Discover(beadsDir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	s := reload.New(reload.SourceLoader(src),
		reload.WithWatchPaths(src.SignalPaths()...),
		reload.WithPollInterval(20*time.Millisecond),
		reload.WithDebounce(10*time.Millisecond),
	)
	defer s.Stop()

	updates := make(chan reload.Update, 8)
	s.Subscribe(func(u reload.Update) { updates <- u })

	first, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("initial Reload: %v", err)
	}
	<-updates
	if first.Graph.Issue("B").Bucket != model.BucketBlocked {
		t.Fatalf("B should start blocked")
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Make sure the mtime moves even on coarse-grained filesystems.
	time.Sleep(20 * time.Millisecond)
	testutil.ExecSQLite(t, src.Path, `UPDATE issues SET status = 'closed', description = 'closed out of band' WHERE id = 'A'`)

	select {
	case u := <-updates:
		if u.Err != nil {
			t.Fatalf("update error: %v", u.Err)
		}
		if u.Manual {
			t.Error("watcher update marked manual")
		}
		if u.Generation <= first.Generation {
			t.Errorf("generation %d not after %d", u.Generation, first.Generation)
		}
		b := u.Graph.Issue("B")
		if b.Bucket != model.BucketOpen || len(b.BlockedBy) != 0 {
			t.Errorf("B = bucket %v blockedBy %v, want open and unblocked", b.Bucket, b.BlockedBy)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("external write not picked up")
	}
}

func TestState_String(t *testing.T) {
	for st, want := range map[reload.State]string{
		reload.StateIdle:    "idle",
		reload.StateLoading: "loading",
		reload.StateStopped: "stopped",
		reload.State(99):    "unknown",
	} {
		if st.String() != want {
			t.Errorf("%d.String() = %q, want %q", st, st.String(), want)
		}
	}
}
