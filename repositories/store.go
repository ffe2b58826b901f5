package repositories

import (
	"context"
	"time"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/storage"
)

// Store opens sessions over the key-value store. All repositories obtained from one
// Update session are written back together or not at all.
type Store struct {
	kv  storage.KVStore
	now func() time.Time
}

func NewStore(kv storage.KVStore) *Store {
	return &Store{kv: kv, now: time.Now}
}

// WithClock replaces the clock used for timestamp ids. Tests only.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Now() time.Time { return s.now() }

// View runs fn against a read-only session.
func (s *Store) View(ctx context.Context, fn func(sess *Session) error) error {
	return s.kv.View(ctx, func(tx storage.Tx) error {
		return fn(newSession(tx, s.now))
	})
}

// Update runs fn and flushes every changed collection in the same transaction.
func (s *Store) Update(ctx context.Context, fn func(sess *Session) error) error {
	return s.kv.Update(ctx, func(tx storage.Tx) error {
		sess := newSession(tx, s.now)
		if err := fn(sess); err != nil {
			return err
		}
		return sess.flush(ctx)
	})
}

// Session groups the typed collections of one transaction.
type Session struct {
	tx  storage.Tx
	now func() time.Time

	competitions *collection[models.Competition, *models.Competition]
	teams        *collection[models.Team, *models.Team]
	users        *collection[models.User, *models.User]
	cards        *collection[models.SavedCard, *models.SavedCard]
	contacts     *collection[models.ContactMessage, *models.ContactMessage]
}

func newSession(tx storage.Tx, now func() time.Time) *Session {
	return &Session{
		tx:           tx,
		now:          now,
		competitions: newCollection[models.Competition](storage.KeyCompetitions, ErrCompetitionNotFound),
		teams:        newCollection[models.Team](storage.KeyTeams, ErrTeamNotFound),
		users:        newCollection[models.User](storage.KeyUsers, ErrUserNotFound),
		cards:        newCollection[models.SavedCard](storage.KeyUserCards, ErrCardNotFound),
		contacts:     newCollection[models.ContactMessage](storage.KeyContactMessages, ErrContactMessageNotFound),
	}
}

func (s *Session) Competitions() CompetitionRepository {
	return &kvCompetitionRepository{records: records[models.Competition, *models.Competition]{sess: s, c: s.competitions}}
}

func (s *Session) Teams() TeamRepository {
	return &kvTeamRepository{records: records[models.Team, *models.Team]{sess: s, c: s.teams}}
}

func (s *Session) Users() UserRepository {
	return &kvUserRepository{records: records[models.User, *models.User]{sess: s, c: s.users}}
}

func (s *Session) Cards() CardRepository {
	return &kvCardRepository{records: records[models.SavedCard, *models.SavedCard]{sess: s, c: s.cards}}
}

func (s *Session) ContactMessages() ContactRepository {
	return &kvContactRepository{records: records[models.ContactMessage, *models.ContactMessage]{sess: s, c: s.contacts}}
}

func (s *Session) flush(ctx context.Context) error {
	flushers := []func(context.Context) error{
		func(ctx context.Context) error { return s.competitions.flush(ctx, s.tx) },
		func(ctx context.Context) error { return s.teams.flush(ctx, s.tx) },
		func(ctx context.Context) error { return s.users.flush(ctx, s.tx) },
		func(ctx context.Context) error { return s.cards.flush(ctx, s.tx) },
		func(ctx context.Context) error { return s.contacts.flush(ctx, s.tx) },
	}
	for _, f := range flushers {
		if err := f(ctx); err != nil {
			return err
		}
	}
	return nil
}

// records binds a collection to its session and implements the shared CRUD methods.
type records[T any, P recordPtr[T]] struct {
	sess *Session
	c    *collection[T, P]
}

func (r records[T, P]) List(ctx context.Context) ([]T, error) {
	if err := r.c.load(ctx, r.sess.tx); err != nil {
		return nil, err
	}
	return r.c.list(), nil
}

func (r records[T, P]) GetByID(ctx context.Context, id int64) (*T, error) {
	if err := r.c.load(ctx, r.sess.tx); err != nil {
		return nil, err
	}
	return r.c.get(id)
}

func (r records[T, P]) Update(ctx context.Context, item *T) error {
	if err := r.c.load(ctx, r.sess.tx); err != nil {
		return err
	}
	return r.c.replace(*item)
}

func (r records[T, P]) Delete(ctx context.Context, id int64) error {
	if err := r.c.load(ctx, r.sess.tx); err != nil {
		return err
	}
	return r.c.remove(id)
}

// create assigns a timestamp id when the record has none and inserts it.
func (r records[T, P]) create(ctx context.Context, item *T, setID func(int64)) error {
	if err := r.c.load(ctx, r.sess.tx); err != nil {
		return err
	}
	if P(item).RecordID() == 0 {
		setID(r.c.nextID(r.sess.now().UnixMilli()))
	}
	return r.c.insert(*item)
}
