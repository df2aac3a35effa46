package kvstore

import "errors"

var ErrNotFound = errors.New("key not found")

// Store is a minimal key-value persistence surface: one opaque value per
// key, read and written whole. Implementations must make Set atomic from a
// reader's perspective (a Get never observes a partially written value).
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
