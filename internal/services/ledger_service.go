package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dailyexpense/internal/amqp"
	"dailyexpense/internal/core"
)

// Store is the persistence the ledger writes through.
type Store interface {
	InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	InsertNote(ctx context.Context, n core.Note) (int64, error)
	DeleteNote(ctx context.Context, id int64) error
	ListNotes(ctx context.Context) ([]core.Note, error)
	ReplaceAll(ctx context.Context, data core.AppBackupData) error
}

// ChangePublisher announces committed changes to other processes.
type ChangePublisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// LedgerService validates and persists changes, then republishes the
// snapshot. Nothing is shown as changed until the store has accepted it.
// Writes are serialized with their reload so snapshot versions follow
// commit order.
type LedgerService struct {
	mu        sync.Mutex
	store     Store
	hub       *Hub
	publisher ChangePublisher
}

// NewLedgerService wires the service; publisher may be nil.
func NewLedgerService(store Store, hub *Hub, publisher ChangePublisher) *LedgerService {
	return &LedgerService{store: store, hub: hub, publisher: publisher}
}

// Load publishes the stored state as the first snapshot.
func (s *LedgerService) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx)
}

// Snapshot returns the latest published snapshot.
func (s *LedgerService) Snapshot() Snapshot {
	return s.hub.Current()
}

func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.store.InsertTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	t.ID = id

	s.commit(ctx, amqp.EntityTransaction, amqp.ActionCreated, id)
	return t, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	t = t.Normalize()
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.commit(ctx, amqp.EntityTransaction, amqp.ActionUpdated, t.ID)
	return nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.commit(ctx, amqp.EntityTransaction, amqp.ActionDeleted, id)
	return nil
}

func (s *LedgerService) AddNote(ctx context.Context, n core.Note) (core.Note, error) {
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		return core.Note{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.store.InsertNote(ctx, n)
	if err != nil {
		return core.Note{}, fmt.Errorf("save note: %w", err)
	}
	n.ID = id

	s.commit(ctx, amqp.EntityNote, amqp.ActionCreated, id)
	return n, nil
}

func (s *LedgerService) DeleteNote(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	s.commit(ctx, amqp.EntityNote, amqp.ActionDeleted, id)
	return nil
}

// Restore replaces the whole store with data.
func (s *LedgerService) Restore(ctx context.Context, data core.AppBackupData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ReplaceAll(ctx, data); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}

	s.commit(ctx, amqp.EntityStore, amqp.ActionRestored, 0)
	return nil
}

func (s *LedgerService) reload(ctx context.Context) (Snapshot, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reload transactions: %w", err)
	}
	notes, err := s.store.ListNotes(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reload notes: %w", err)
	}
	snap := s.hub.Publish(txs, notes)
	slog.DebugContext(ctx, "Snapshot published",
		"version", snap.Version,
		"transactions", len(txs),
		"notes", len(notes))
	return snap, nil
}

// commit republishes the store after a successful write and announces it.
// The write is already durable, so a failed reload is logged and the
// snapshot catches up on the next change.
func (s *LedgerService) commit(ctx context.Context, entity amqp.Entity, action amqp.Action, id int64) {
	snap, err := s.reload(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Snapshot reload failed after commit",
			"entity", entity,
			"action", action,
			"id", id,
			"error", err)
		snap = s.hub.Current()
	}
	s.announce(ctx, entity, action, id, snap.Version)
}

// announce is best effort: the change is already committed locally.
func (s *LedgerService) announce(ctx context.Context, entity amqp.Entity, action amqp.Action, id int64, version uint64) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewLedgerChangedMessage(entity, action, id, version)
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"entity", entity,
			"action", action,
			"id", id,
			"error", err)
	}
}
