package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	appErrors "github.com/noah-isme/sma-roster-api/pkg/errors"
)

// Collection keys persisted in the key-value store.
const (
	KeyUsers         = "users"
	KeyDefaultFields = "defaultFields"
	KeyCustomFields  = "customFields"
	KeyStudents      = "students"
	KeyMaxStudentID  = "maxStudentId"
	KeySession       = "session"
)

// KVStore is a string-keyed store of whole JSON values.
// Get returns appErrors.ErrKeyNotFound when the key is absent.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Deleter is implemented by stores that can drop a key outright.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by stores backed by a remote server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IsKeyNotFound reports whether err signals an absent key.
func IsKeyNotFound(err error) bool {
	return errors.Is(err, appErrors.ErrKeyNotFound)
}

// readJSON decodes key into dest. found is false when the key is absent.
func readJSON(ctx context.Context, store KVStore, key string, dest interface{}) (found bool, err error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if IsKeyNotFound(err) {
			return false, nil
		}
		return false, appErrors.Storage(err, fmt.Sprintf("read %s", key))
	}
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, appErrors.Storage(fmt.Errorf("decode %s: %w", key, err), fmt.Sprintf("read %s", key))
	}
	return true, nil
}

func writeJSON(ctx context.Context, store KVStore, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return appErrors.Storage(fmt.Errorf("encode %s: %w", key, err), fmt.Sprintf("write %s", key))
	}
	if err := store.Set(ctx, key, payload); err != nil {
		return appErrors.Storage(err, fmt.Sprintf("write %s", key))
	}
	return nil
}

func deleteKey(ctx context.Context, store KVStore, key string) error {
	if d, ok := store.(Deleter); ok {
		if err := d.Delete(ctx, key); err != nil {
			return appErrors.Storage(err, fmt.Sprintf("delete %s", key))
		}
		return nil
	}
	return writeJSON(ctx, store, key, nil)
}
