package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"dailyexpense/internal/backup"
	"dailyexpense/internal/core"
)

// BackupService moves the whole store to and from backup files.
type BackupService struct {
	store  Store
	ledger *LedgerService
	dir    string
	now    func() time.Time
}

func NewBackupService(store Store, ledger *LedgerService, dir string) *BackupService {
	return &BackupService{store: store, ledger: ledger, dir: dir, now: time.Now}
}

// Export writes the current store to the backup folder and returns the
// file path.
func (s *BackupService) Export(ctx context.Context) (string, error) {
	var data core.AppBackupData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.store.ListTransactions(gctx)
		if err != nil {
			return err
		}
		data.Transactions = txs
		return nil
	})
	g.Go(func() error {
		notes, err := s.store.ListNotes(gctx)
		if err != nil {
			return err
		}
		data.Notes = notes
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("load backup data: %w", err)
	}

	path, err := backup.Export(s.dir, s.now(), data)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Backup exported",
		"path", path,
		"transactions", len(data.Transactions),
		"notes", len(data.Notes))
	return path, nil
}

// ImportFile restores the store from the backup at path. The file is fully
// parsed before anything is replaced.
func (s *BackupService) ImportFile(ctx context.Context, path string) (core.AppBackupData, error) {
	data, err := backup.Import(path)
	if err != nil {
		return core.AppBackupData{}, err
	}
	return data, s.restore(ctx, data)
}

// ImportNamed restores from a file inside the backup folder. Only the base
// name of name is used.
func (s *BackupService) ImportNamed(ctx context.Context, name string) (core.AppBackupData, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return core.AppBackupData{}, fmt.Errorf("%w: missing file name", backup.ErrMalformed)
	}
	return s.ImportFile(ctx, filepath.Join(s.dir, base))
}

// Import restores the store from a backup document read from r.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (core.AppBackupData, error) {
	data, err := backup.Decode(r)
	if err != nil {
		return core.AppBackupData{}, err
	}
	return data, s.restore(ctx, data)
}

func (s *BackupService) restore(ctx context.Context, data core.AppBackupData) error {
	if err := s.ledger.Restore(ctx, data); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Backup imported",
		"transactions", len(data.Transactions),
		"notes", len(data.Notes))
	return nil
}
