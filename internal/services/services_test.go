package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyexpense/internal/amqp"
	"dailyexpense/internal/backup"
	"dailyexpense/internal/core"
	"dailyexpense/internal/ledger"
	"dailyexpense/internal/report"
)

type memStore struct {
	mu      sync.Mutex
	nextID  int64
	txs     map[int64]core.Transaction
	notes   map[int64]core.Note
	failErr error
	listErr error
}

func newMemStore() *memStore {
	return &memStore{txs: map[int64]core.Transaction{}, notes: map[int64]core.Note{}}
}

func (m *memStore) fail() error {
	return m.failErr
}

func (m *memStore) InsertTransaction(_ context.Context, t core.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return 0, err
	}
	if t.ID == 0 {
		m.nextID++
		t.ID = m.nextID
	}
	m.txs[t.ID] = t
	return t.ID, nil
}

func (m *memStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	if _, ok := m.txs[t.ID]; !ok {
		return core.ErrNotFound
	}
	m.txs[t.ID] = t
	return nil
}

func (m *memStore) DeleteTransaction(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	if _, ok := m.txs[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.txs, id)
	return nil
}

func (m *memStore) ListTransactions(context.Context) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]core.Transaction, 0, len(m.txs))
	for _, t := range m.txs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memStore) InsertNote(_ context.Context, n core.Note) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return 0, err
	}
	if n.ID == 0 {
		m.nextID++
		n.ID = m.nextID
	}
	m.notes[n.ID] = n
	return n.ID, nil
}

func (m *memStore) DeleteNote(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memStore) ListNotes(context.Context) ([]core.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Note, 0, len(m.notes))
	for _, n := range m.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) ReplaceAll(_ context.Context, data core.AppBackupData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	m.txs = map[int64]core.Transaction{}
	m.notes = map[int64]core.Note{}
	for _, t := range data.Transactions {
		m.txs[t.ID] = t
	}
	for _, n := range data.Notes {
		m.notes[n.ID] = n
	}
	return nil
}

// gatedStore holds the first reload after reading the transactions, so a
// second writer can try to commit in between.
type gatedStore struct {
	*memStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		memStore: newMemStore(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (g *gatedStore) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := g.memStore.ListTransactions(ctx)
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return txs, err
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChangedMessage
	err  error
}

func (p *recordingPublisher) PublishLedgerChanged(_ context.Context, msg *amqp.LedgerChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func expense(desc, amount string, when time.Time) core.Transaction {
	return core.Transaction{
		Category:    core.Food,
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Date:        when,
		Type:        core.Expense,
	}
}

func TestHubDeliversCurrentThenLatest(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	ch := hub.Subscribe(ctx)

	first := <-ch
	require.Equal(t, uint64(0), first.Version)

	// nobody reads while three versions land; only the newest survives
	hub.Publish(nil, nil)
	hub.Publish(nil, nil)
	hub.Publish([]core.Transaction{expense("x", "1", time.Now())}, nil)

	got := <-ch
	require.Equal(t, uint64(3), got.Version)
	require.Len(t, got.Transactions, 1)
	require.Equal(t, uint64(3), hub.Current().Version)

	cancel()
	_, open := <-ch
	require.False(t, open, "channel closes once the subscriber is done")
}

func TestLedgerServiceWritesThroughThenPublishes(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	hub := NewHub()
	pub := &recordingPublisher{}
	svc := NewLedgerService(store, hub, pub)

	_, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), svc.Snapshot().Version)

	saved, err := svc.AddTransaction(ctx, expense("Lunch", "12.50", time.Now()))
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	snap := svc.Snapshot()
	require.Equal(t, uint64(2), snap.Version)
	require.Len(t, snap.Transactions, 1)
	require.Len(t, pub.msgs, 1)
	require.Equal(t, amqp.ActionCreated, pub.msgs[0].Action)
	require.Equal(t, snap.Version, pub.msgs[0].Version)

	saved.Description = "Team lunch"
	require.NoError(t, svc.UpdateTransaction(ctx, saved))
	require.Equal(t, "Team lunch", svc.Snapshot().Transactions[0].Description)

	require.NoError(t, svc.DeleteTransaction(ctx, saved.ID))
	require.Empty(t, svc.Snapshot().Transactions)
	require.Len(t, pub.msgs, 3)
}

func TestLedgerServiceRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewLedgerService(store, NewHub(), nil)

	_, err := svc.AddTransaction(ctx, expense("   ", "5", time.Now()))
	require.ErrorIs(t, err, core.ErrEmptyDescription)

	_, err = svc.AddTransaction(ctx, expense("Coffee", "0", time.Now()))
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	require.Empty(t, store.txs)
	require.Equal(t, uint64(0), svc.Snapshot().Version, "nothing published on rejection")
}

func TestLedgerServiceKeepsSnapshotOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewLedgerService(store, NewHub(), pub)

	_, err := svc.AddTransaction(ctx, expense("Kept", "1", time.Now()))
	require.NoError(t, err)
	before := svc.Snapshot()

	store.failErr = errors.New("disk full")
	_, err = svc.AddTransaction(ctx, expense("Lost", "2", time.Now()))
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")

	after := svc.Snapshot()
	require.Equal(t, before.Version, after.Version)
	require.Len(t, after.Transactions, 1)
	require.Len(t, pub.msgs, 1)
}

func TestLedgerServiceConcurrentWritesKeepSnapshotCurrent(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	pub := &recordingPublisher{}
	svc := NewLedgerService(store, NewHub(), pub)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.AddTransaction(ctx, expense("First", "1", time.Now()))
		assert.NoError(t, err)
	}()
	<-store.entered

	go func() {
		defer wg.Done()
		_, err := svc.AddTransaction(ctx, expense("Second", "2", time.Now()))
		assert.NoError(t, err)
	}()
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	stored, err := store.memStore.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	snap := svc.Snapshot()
	require.Equal(t, uint64(2), snap.Version)
	require.Len(t, snap.Transactions, 2)

	require.Len(t, pub.msgs, 2)
	require.Equal(t, uint64(1), pub.msgs[0].Version)
	require.Equal(t, uint64(2), pub.msgs[1].Version)
}

func TestLedgerServiceReloadFailureAfterCommit(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	pub := &recordingPublisher{}
	svc := NewLedgerService(store, NewHub(), pub)

	store.listErr = errors.New("database is locked")
	saved, err := svc.AddTransaction(ctx, expense("Rent", "500", time.Now()))
	require.NoError(t, err, "the insert committed")
	require.NotZero(t, saved.ID)
	require.Len(t, store.txs, 1)
	require.Equal(t, uint64(0), svc.Snapshot().Version)
	require.Len(t, pub.msgs, 1)

	store.listErr = nil
	_, err = svc.AddTransaction(ctx, expense("Bus", "2", time.Now()))
	require.NoError(t, err)
	require.Len(t, svc.Snapshot().Transactions, 2)
}

func TestLedgerServicePublisherFailureIsNotFatal(t *testing.T) {
	svc := NewLedgerService(newMemStore(), NewHub(), &recordingPublisher{err: errors.New("broker down")})
	_, err := svc.AddNote(context.Background(), core.Note{
		Amount:      decimal.NewFromInt(5),
		Description: "Owed",
		Date:        time.Now(),
		Type:        core.Debt,
	})
	require.NoError(t, err)
	require.Len(t, svc.Snapshot().Notes, 1)
}

func TestDashboardFollowsHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemStore()
	hub := NewHub()
	svc := NewLedgerService(store, hub, nil)
	dash := NewDashboard(hub)
	go dash.Run(ctx)

	now := time.Now()
	_, err := svc.AddTransaction(ctx, core.Transaction{
		Category: core.Salary, Description: "Pay", Amount: decimal.NewFromInt(100), Date: now, Type: core.Income,
	})
	require.NoError(t, err)
	_, err = svc.AddTransaction(ctx, expense("Food", "40", now))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return dash.Latest().Version == svc.Snapshot().Version
	}, time.Second, 5*time.Millisecond)

	sum := dash.Latest()
	require.Equal(t, "60", sum.Balance.String())
	require.Len(t, sum.ExpenseByCategory, 1)
	require.Len(t, sum.IncomeByCategory, 1)
	require.InDelta(t, 100.0/140.0, sum.Totals.IncomeProgress, 1e-9)
}

func TestBackupRoundTripThroughServices(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := newMemStore()
	svc := NewLedgerService(store, NewHub(), nil)
	backups := NewBackupService(store, svc, dir)
	backups.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

	_, err := svc.AddTransaction(ctx, expense("Bread", "2.40", time.UnixMilli(1_700_000_000_000)))
	require.NoError(t, err)
	_, err = svc.AddNote(ctx, core.Note{Amount: decimal.NewFromInt(9), Description: "Lent", Date: time.Now(), Type: core.Receivable})
	require.NoError(t, err)

	path, err := backups.Export(ctx)
	require.NoError(t, err)
	require.Equal(t, "DailyExpense_Backup_2024_05_06.json", filepath.Base(path))

	other := newMemStore()
	otherSvc := NewLedgerService(other, NewHub(), nil)
	_, err = otherSvc.AddTransaction(ctx, expense("Will be replaced", "1", time.Now()))
	require.NoError(t, err)

	data, err := NewBackupService(other, otherSvc, dir).ImportFile(ctx, path)
	require.NoError(t, err)
	require.Len(t, data.Transactions, 1)

	snap := otherSvc.Snapshot()
	require.Len(t, snap.Transactions, 1)
	require.Equal(t, "Bread", snap.Transactions[0].Description)
	require.True(t, decimal.RequireFromString("2.40").Equal(snap.Transactions[0].Amount))
	require.Len(t, snap.Notes, 1)
}

func TestFailedImportLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewLedgerService(store, NewHub(), nil)
	_, err := svc.AddTransaction(ctx, expense("Keep", "3", time.Now()))
	require.NoError(t, err)
	before := svc.Snapshot().Version

	backups := NewBackupService(store, svc, t.TempDir())
	_, err = backups.Import(ctx, strings.NewReader(`{"transactions": [ {"amount": `))
	require.ErrorIs(t, err, backup.ErrMalformed)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not a backup"), 0o644))
	_, err = backups.ImportFile(ctx, bad)
	require.Error(t, err)

	require.Len(t, store.txs, 1)
	require.Equal(t, before, svc.Snapshot().Version)
}

type captureWriter struct {
	rows []report.Row
}

func (c *captureWriter) Write(rows []report.Row) (string, error) {
	c.rows = rows
	return "/tmp/report.xlsx", nil
}

func TestReportServiceUsesFilter(t *testing.T) {
	ctx := context.Background()
	hub := NewHub()
	svc := NewLedgerService(newMemStore(), hub, nil)
	now := time.Now()
	_, err := svc.AddTransaction(ctx, expense("Pizza", "10", now))
	require.NoError(t, err)
	_, err = svc.AddTransaction(ctx, core.Transaction{
		Category: core.Salary, Description: "Pay", Amount: decimal.NewFromInt(100), Date: now, Type: core.Income,
	})
	require.NoError(t, err)

	w := &captureWriter{}
	reports := NewReportService(hub, w)

	path, err := reports.Generate(ctx, ledger.Filter{Type: core.Expense})
	require.NoError(t, err)
	require.Equal(t, "/tmp/report.xlsx", path)
	require.Len(t, w.rows, 1)
	require.Equal(t, "Pizza", w.rows[0].Description)

	_, err = reports.Generate(ctx, ledger.Filter{Query: "nothing matches"})
	require.ErrorIs(t, err, report.ErrNoTransactions)
}
