package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/repositories"
	"github.com/Dosada05/competition-ledger/storage"
)

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: make(map[string][]byte)}
}

func (u *memoryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: "mem://" + key}, nil
}

func (u *memoryUploader) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.objects[key]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (u *memoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

func TestSnapshotService_ExportRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uploader := newMemoryUploader()
	svc := NewSnapshotService(f.store, uploader, discardLogger())
	owner := f.addUser(t, "owner", models.RoleUser)
	team := f.addTeam(t, "Alpha", owner, 2)
	comp := f.addCompetition(t, models.Competition{MaxTeams: 2, Teams: []int64{team.ID}})

	info, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(info.Key, "snapshots/"))
	assert.Equal(t, "https://cdn.example.com/"+info.Key, info.URL)

	// восстановление в пустое хранилище
	target := repositories.NewStore(storage.NewMemoryStore()).WithClock(func() time.Time { return fixedNow })
	restored := NewSnapshotService(target, uploader, discardLogger())
	require.NoError(t, restored.Restore(ctx, info.Key))

	require.NoError(t, target.View(ctx, func(sess *repositories.Session) error {
		c, err := sess.Competitions().GetByID(ctx, comp.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{team.ID}, c.Teams)
		users, err := sess.Users().List(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
		cards, err := sess.Cards().ListByUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.Empty(t, cards)
		return nil
	}))
}

func TestSnapshotService_RestoreRejectsBadBlobs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewSnapshotService(f.store, nil, discardLogger())
	f.addUser(t, "owner", models.RoleUser)

	bad := Snapshot{Version: 1, Data: map[string]json.RawMessage{
		storage.KeyCompetitions: json.RawMessage(`[{"id": 0}]`),
	}}
	body, err := json.Marshal(bad)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.RestoreFrom(ctx, bytes.NewReader(body)), ErrValidationFailed)

	unknown := `{"version": 1, "data": {"sessions": []}}`
	assert.ErrorIs(t, svc.RestoreFrom(ctx, strings.NewReader(unknown)), ErrValidationFailed)

	assert.ErrorIs(t, svc.RestoreFrom(ctx, strings.NewReader(`{"version": 2, "data": {}}`)), ErrValidationFailed)

	// хранилище не изменилось
	snap, err := svc.Dump(ctx)
	require.NoError(t, err)
	var users []models.User
	require.NoError(t, json.Unmarshal(snap.Data[storage.KeyUsers], &users))
	assert.Len(t, users, 1)
	assert.JSONEq(t, `[]`, string(snap.Data[storage.KeyTeams]))

	_, err = svc.Export(ctx)
	assert.ErrorIs(t, err, ErrSnapshotsDisabled)
}

func TestSnapshotService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uploader := newMemoryUploader()
	uploader.objects["avatars/1.png"] = []byte("png")
	svc := NewSnapshotService(f.store, uploader, discardLogger())

	info, err := svc.Export(ctx)
	require.NoError(t, err)
	require.Contains(t, uploader.objects, info.Key)

	require.NoError(t, svc.Delete(ctx, info.Key))
	assert.NotContains(t, uploader.objects, info.Key)
	assert.Error(t, svc.Restore(ctx, info.Key), "deleted snapshot cannot be restored")

	// чужие объекты бакета не удаляются
	assert.ErrorIs(t, svc.Delete(ctx, "avatars/1.png"), ErrValidationFailed)
	assert.ErrorIs(t, svc.Delete(ctx, "snapshots/"), ErrValidationFailed)
	assert.Contains(t, uploader.objects, "avatars/1.png")

	disabled := NewSnapshotService(f.store, nil, discardLogger())
	assert.ErrorIs(t, disabled.Delete(ctx, info.Key), ErrSnapshotsDisabled)
}
