package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/competition-ledger/repositories"
	"github.com/Dosada05/competition-ledger/storage"
)

const (
	snapshotVersion   = 1
	snapshotKeyPrefix = "snapshots/"
	maxSnapshotSize   = 64 << 20
)

// Snapshot: все JSON-блобы хранилища одним документом.
type Snapshot struct {
	Version   int                        `json:"version"`
	CreatedAt time.Time                  `json:"created_at"`
	Data      map[string]json.RawMessage `json:"data"`
}

type SnapshotInfo struct {
	Key       string    `json:"key"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Size      int       `json:"size"`
}

type SnapshotService interface {
	Dump(ctx context.Context) (*Snapshot, error)
	Export(ctx context.Context) (*SnapshotInfo, error)
	Restore(ctx context.Context, key string) error
	RestoreFrom(ctx context.Context, r io.Reader) error
	Delete(ctx context.Context, key string) error
}

type snapshotService struct {
	store    *repositories.Store
	uploader storage.FileUploader
	logger   *slog.Logger
}

// NewSnapshotService: uploader может быть nil, тогда доступен только Dump.
func NewSnapshotService(store *repositories.Store, uploader storage.FileUploader, logger *slog.Logger) SnapshotService {
	return &snapshotService{store: store, uploader: uploader, logger: logger}
}

func (s *snapshotService) Dump(ctx context.Context) (*Snapshot, error) {
	blobs, err := s.store.ExportBlobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export blobs: %w", err)
	}
	return &Snapshot{
		Version:   snapshotVersion,
		CreatedAt: s.store.Now().UTC(),
		Data:      blobs,
	}, nil
}

func (s *snapshotService) Export(ctx context.Context) (*SnapshotInfo, error) {
	if s.uploader == nil {
		return nil, ErrSnapshotsDisabled
	}
	snap, err := s.Dump(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := snapshotKeyPrefix + snap.CreatedAt.Format("20060102T150405.000Z") + ".json"
	res, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}
	s.logger.InfoContext(ctx, "Snapshot uploaded", slog.String("key", res.Key), slog.Int("size", len(body)))
	return &SnapshotInfo{
		Key:       res.Key,
		URL:       s.uploader.GetPublicURL(res.Key),
		CreatedAt: snap.CreatedAt,
		Size:      len(body),
	}, nil
}

func (s *snapshotService) Restore(ctx context.Context, key string) error {
	if s.uploader == nil {
		return ErrSnapshotsDisabled
	}
	rc, err := s.uploader.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to download snapshot %s: %w", key, err)
	}
	defer rc.Close()

	if err := s.RestoreFrom(ctx, rc); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Snapshot restored", slog.String("key", key))
	return nil
}

// RestoreFrom заменяет все блобы содержимым снимка; при любой ошибке хранилище не меняется.
func (s *snapshotService) RestoreFrom(ctx context.Context, r io.Reader) error {
	var snap Snapshot
	dec := json.NewDecoder(io.LimitReader(r, maxSnapshotSize))
	if err := dec.Decode(&snap); err != nil {
		return fmt.Errorf("%w: snapshot is not valid JSON: %v", ErrValidationFailed, err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("%w: unsupported snapshot version %d", ErrValidationFailed, snap.Version)
	}
	if err := s.store.RestoreBlobs(ctx, snap.Data); err != nil {
		// битый блоб в снимке это ошибка входных данных, а не хранилища
		if errors.Is(err, storage.ErrStorageCorrupt) {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		return handleRepositoryError(err, "failed to restore snapshot")
	}
	return nil
}

// Delete удаляет выгруженный снимок. Ключи вне snapshots/ не трогаем.
func (s *snapshotService) Delete(ctx context.Context, key string) error {
	if s.uploader == nil {
		return ErrSnapshotsDisabled
	}
	if !strings.HasPrefix(key, snapshotKeyPrefix) || len(key) == len(snapshotKeyPrefix) {
		return fmt.Errorf("%w: snapshot key must start with %q", ErrValidationFailed, snapshotKeyPrefix)
	}
	if err := s.uploader.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	s.logger.InfoContext(ctx, "Snapshot deleted", slog.String("key", key))
	return nil
}
