package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/payments"
	"github.com/Dosada05/competition-ledger/repositories"
	"github.com/Dosada05/competition-ledger/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider charges instantly unless release is set, in which case every charge
// waits for one value on release (or for cancellation). refundErr rejects refunds,
// onRefund runs before every refund attempt.
type fakeProvider struct {
	release   chan struct{}
	refundErr error
	onRefund  func()

	mu      sync.Mutex
	n       int
	charges []payments.ChargeRequest
	refunds []string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Charge(ctx context.Context, req payments.ChargeRequest) (*payments.ChargeResult, error) {
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if req.Card.Last4 == "0000" {
		return nil, payments.ErrCardDeclined
	}
	p.n++
	p.charges = append(p.charges, req)
	return &payments.ChargeResult{TransactionID: fmt.Sprintf("tx_%d", p.n), ProcessedAt: fixedNow}, nil
}

func (p *fakeProvider) Refund(ctx context.Context, transactionID string, amount int64) error {
	if p.onRefund != nil {
		p.onRefund()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refundErr != nil {
		return p.refundErr
	}
	p.refunds = append(p.refunds, transactionID)
	return nil
}

func (p *fakeProvider) refunded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.refunds...)
}

func (p *fakeProvider) chargeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.charges)
}

var errCommitFailed = errors.New("commit failed")

// failingKV runs transactions against the wrapped store but fails every Update
// while fail is set, so nothing staged in it is written.
type failingKV struct {
	storage.KVStore

	mu   sync.Mutex
	fail bool
}

func (s *failingKV) setFail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func (s *failingKV) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	return s.KVStore.Update(ctx, func(tx storage.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		if fail {
			return errCommitFailed
		}
		return nil
	})
}

type recordingNotifier struct {
	mu    sync.Mutex
	rooms []string
}

func (n *recordingNotifier) BroadcastToRoom(roomID string, message interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rooms = append(n.rooms, roomID)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.rooms)
}

type fixture struct {
	kv       *storage.MemoryStore
	store    *repositories.Store
	provider *fakeProvider
	notifier *recordingNotifier
	tracker  *payments.Tracker
	ledger   LedgerService
	payments PaymentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := storage.NewMemoryStore()
	store := repositories.NewStore(kv).WithClock(func() time.Time { return fixedNow })
	provider := &fakeProvider{}
	notifier := &recordingNotifier{}
	tracker := payments.NewTracker(time.Hour)
	t.Cleanup(func() {
		require.NoError(t, tracker.Shutdown(context.Background()))
	})

	return &fixture{
		kv:       kv,
		store:    store,
		provider: provider,
		notifier: notifier,
		tracker:  tracker,
		ledger:   NewLedgerService(store, provider, notifier, discardLogger()),
		payments: NewPaymentService(store, provider, tracker, notifier, discardLogger()),
	}
}

func (f *fixture) addUser(t *testing.T, name string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, f.store.Update(context.Background(), func(sess *repositories.Session) error {
		return sess.Users().Create(context.Background(), u)
	}))
	return u
}

// addTeam creates a team owned by owner with members extra members.
func (f *fixture) addTeam(t *testing.T, name string, owner *models.User, members int) *models.Team {
	t.Helper()
	team := &models.Team{Name: name, OwnerID: owner.ID, MaxMembers: 10}
	team.Members = append(team.Members, models.TeamMember{ID: owner.ID, Name: owner.Name})
	for i := 1; i < members; i++ {
		team.Members = append(team.Members, models.TeamMember{ID: int64(1000 + i), Name: fmt.Sprintf("member-%d", i)})
	}
	require.NoError(t, f.store.Update(context.Background(), func(sess *repositories.Session) error {
		return sess.Teams().Create(context.Background(), team)
	}))
	return team
}

func (f *fixture) addCompetition(t *testing.T, c models.Competition) *models.Competition {
	t.Helper()
	if c.Name == "" {
		c.Name = "Cup"
	}
	require.NoError(t, f.store.Update(context.Background(), func(sess *repositories.Session) error {
		return sess.Competitions().Create(context.Background(), &c)
	}))
	return &c
}

func (f *fixture) competition(t *testing.T, id int64) *models.Competition {
	t.Helper()
	var c *models.Competition
	require.NoError(t, f.store.View(context.Background(), func(sess *repositories.Session) error {
		var err error
		c, err = sess.Competitions().GetByID(context.Background(), id)
		return err
	}))
	return c
}

func (f *fixture) team(t *testing.T, id int64) *models.Team {
	t.Helper()
	var team *models.Team
	require.NoError(t, f.store.View(context.Background(), func(sess *repositories.Session) error {
		var err error
		team, err = sess.Teams().GetByID(context.Background(), id)
		return err
	}))
	return team
}

func validCard() *CardInput {
	return &CardInput{Number: "4111 1111 1111 1111", Expiry: "12/30", CVV: "123", Holder: "Ada Lovelace"}
}
