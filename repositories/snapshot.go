package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/storage"
)

// ExportBlobs reads every known blob as stored. Missing keys are exported as empty arrays.
func (s *Store) ExportBlobs(ctx context.Context) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(storage.AllKeys))
	err := s.kv.View(ctx, func(tx storage.Tx) error {
		for _, key := range storage.AllKeys {
			raw, err := tx.Get(ctx, key)
			if errors.Is(err, storage.ErrKeyNotFound) {
				out[key] = json.RawMessage("[]")
				continue
			}
			if err != nil {
				return err
			}
			if err := ValidateBlob(key, raw); err != nil {
				return err
			}
			out[key] = json.RawMessage(raw)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RestoreBlobs validates every blob first and then replaces all of them in one transaction.
// Unknown keys are rejected; known keys absent from blobs are cleared.
func (s *Store) RestoreBlobs(ctx context.Context, blobs map[string]json.RawMessage) error {
	for key := range blobs {
		if !isKnownKey(key) {
			return fmt.Errorf("%w: unknown key %q", ErrInvalidRecord, key)
		}
	}
	for key, raw := range blobs {
		if err := ValidateBlob(key, raw); err != nil {
			return err
		}
	}
	return s.kv.Update(ctx, func(tx storage.Tx) error {
		for _, key := range storage.AllKeys {
			raw, ok := blobs[key]
			if !ok {
				if err := tx.Delete(ctx, key); err != nil {
					return err
				}
				continue
			}
			if err := tx.Set(ctx, key, raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// ValidateBlob runs the load-time checks for the record type stored under key.
func ValidateBlob(key string, raw []byte) error {
	var err error
	switch key {
	case storage.KeyCompetitions:
		_, err = decodeRecords[models.Competition](key, raw)
	case storage.KeyTeams:
		_, err = decodeRecords[models.Team](key, raw)
	case storage.KeyUsers:
		_, err = decodeRecords[models.User](key, raw)
	case storage.KeyUserCards:
		_, err = decodeRecords[models.SavedCard](key, raw)
	case storage.KeyContactMessages:
		_, err = decodeRecords[models.ContactMessage](key, raw)
	default:
		err = fmt.Errorf("%w: unknown key %q", ErrInvalidRecord, key)
	}
	return err
}

func isKnownKey(key string) bool {
	for _, k := range storage.AllKeys {
		if k == key {
			return true
		}
	}
	return false
}
