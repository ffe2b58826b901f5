package storage

import (
	"context"
	"errors"
)

// Keys of the JSON blobs kept in the store. Each holds a JSON array of records.
const (
	KeyCompetitions    = "competitions"
	KeyTeams           = "teams"
	KeyUsers           = "users"
	KeyUserCards       = "userCards"
	KeyContactMessages = "contactMessages"
)

// AllKeys lists every blob the service owns, in snapshot order.
var AllKeys = []string{KeyCompetitions, KeyTeams, KeyUsers, KeyUserCards, KeyContactMessages}

var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrStorageCorrupt = errors.New("stored data is corrupt")
	ErrReadOnlyTx     = errors.New("write attempted in a read-only transaction")
)

// Tx is a view of the store inside a single transaction.
// Writes made through Tx are visible to later reads of the same Tx.
type Tx interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// KVStore is the injected key-value store that replaces browser local storage.
// Update applies all writes of fn or none of them; writers are serialised.
type KVStore interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
