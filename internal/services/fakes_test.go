package services

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/entrelivros/entrelivros/internal/models"
)

// fakeDB implements TxDB with pluggable functions. Calls to a nil function
// panic so tests fail loudly when a service touches the store unexpectedly.
type fakeDB struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
	BeginFunc    func(ctx context.Context) (Tx, error)
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if db.QueryFunc == nil {
		panic("unexpected Query call: " + sql)
	}
	return db.QueryFunc(ctx, sql, args...)
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if db.QueryRowFunc == nil {
		panic("unexpected QueryRow call: " + sql)
	}
	return db.QueryRowFunc(ctx, sql, args...)
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if db.ExecFunc == nil {
		panic("unexpected Exec call: " + sql)
	}
	return db.ExecFunc(ctx, sql, args...)
}

func (db *fakeDB) Begin(ctx context.Context) (Tx, error) {
	if db.BeginFunc == nil {
		panic("unexpected Begin call")
	}
	return db.BeginFunc(ctx)
}

// fakeTx is a transaction backed by the same pluggable functions. Commit and
// rollback calls are counted so tests can assert atomicity behavior.
type fakeTx struct {
	fakeDB
	commits   int
	rollbacks int
	commitErr error
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.commits++
	return tx.commitErr
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	tx.rollbacks++
	return nil
}

type fakeCommandTag struct {
	rowsAffected int64
}

func (t fakeCommandTag) RowsAffected() int64 {
	return t.rowsAffected
}

// fakeRows feeds canned value rows through the Rows interface.
type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.idx < len(r.rows) {
		r.idx++
		return true
	}
	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan expects %d destinations, got %d", len(row), len(dest))
	}
	for i := range dest {
		if err := assignValue(dest[i], row[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRows) Close() {}

func (r *fakeRows) Err() error { return r.err }

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan expects %d destinations, got %d", len(r.values), len(dest))
	}
	for i := range dest {
		if err := assignValue(dest[i], r.values[i]); err != nil {
			return err
		}
	}
	return nil
}

func rowFromValues(values ...any) Row {
	return fakeRow{values: values}
}

func errorRow(err error) Row {
	return fakeRow{err: err}
}

// assignValue copies a canned value into a scan destination, wrapping plain
// values into pointer destinations the way nullable columns scan.
func assignValue(dest, value any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("scan destination must be a non-nil pointer, got %T", dest)
	}
	target := dv.Elem()

	if value == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(target.Type()):
		target.Set(v)
	case v.Type().ConvertibleTo(target.Type()) && target.Kind() != reflect.Ptr:
		target.Set(v.Convert(target.Type()))
	case target.Kind() == reflect.Ptr && v.Type().AssignableTo(target.Type().Elem()):
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(v)
		target.Set(p)
	default:
		return fmt.Errorf("cannot scan %T into %s", value, target.Type())
	}
	return nil
}

// memoryFeed is an in-process ChangeFeed: publishes are recorded and fanned
// out to live subscribers with the same coalescing semantics as redis pub/sub.
type memoryFeed struct {
	mu           sync.Mutex
	published    []uuid.UUID
	subscribers  map[uuid.UUID][]chan struct{}
	publishErr   error
	subscribeErr error
}

func newMemoryFeed() *memoryFeed {
	return &memoryFeed{subscribers: map[uuid.UUID][]chan struct{}{}}
}

func (f *memoryFeed) Publish(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, userID)
	for _, ch := range f.subscribers[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (f *memoryFeed) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan struct{}, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, nil, f.subscribeErr
	}
	ch := make(chan struct{}, 1)
	f.subscribers[userID] = append(f.subscribers[userID], ch)
	stop := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		chans := f.subscribers[userID]
		for i, c := range chans {
			if c == ch {
				f.subscribers[userID] = append(chans[:i], chans[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, stop, nil
}

func (f *memoryFeed) publishedTo(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, id := range f.published {
		if id == userID {
			count++
		}
	}
	return count
}

// fakeSnapshots serves profile snapshots from a map.
type fakeSnapshots struct {
	snapshots map[uuid.UUID]*models.ProfileSnapshot
}

func (s *fakeSnapshots) Snapshot(ctx context.Context, id uuid.UUID) (*models.ProfileSnapshot, error) {
	snapshot, ok := s.snapshots[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return snapshot, nil
}

func snapshotsFor(users ...*models.ProfileSnapshot) *fakeSnapshots {
	m := map[uuid.UUID]*models.ProfileSnapshot{}
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeSnapshots{snapshots: m}
}

func testSnapshot(id uuid.UUID, displayName string) *models.ProfileSnapshot {
	return &models.ProfileSnapshot{ID: id, DisplayName: displayName, Email: displayName + "@test.com"}
}

// fakeNotifications records every notification the graph store emits.
type fakeNotifications struct {
	mu      sync.Mutex
	created []models.CreateNotificationParams
	err     error
}

func (n *fakeNotifications) Create(ctx context.Context, params models.CreateNotificationParams) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.created = append(n.created, params)
	return nil
}
