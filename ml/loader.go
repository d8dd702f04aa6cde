package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultModelPath is used when no model path is configured.
const DefaultModelPath = "gbm_auto_model.json"

// DecodeFunc turns an artifact on disk into a Model.
type DecodeFunc func(path string) (Model, error)

// Loader memoizes decoded models by path for the lifetime of the process.
// There is no reload: a path is decoded at most once after it succeeds.
type Loader struct {
	mu      sync.Mutex
	entries map[string]*loadEntry
	decode  DecodeFunc
}

type loadEntry struct {
	once  sync.Once
	model Model
	err   error
}

// NewLoader returns a Loader that decodes artifacts with DecodeFile.
func NewLoader() *Loader {
	return NewLoaderWithDecoder(DecodeFile)
}

// NewLoaderWithDecoder returns a Loader using decode.
func NewLoaderWithDecoder(decode DecodeFunc) *Loader {
	return &Loader{
		entries: make(map[string]*loadEntry),
		decode:  decode,
	}
}

// Load returns the model stored at path, decoding it on first use.
// Concurrent callers for the same path share one decode. A failed load is
// not cached, so a later explicit call reads the file again.
func (l *Loader) Load(path string) (Model, error) {
	if path == "" {
		path = DefaultModelPath
	}
	key := filepath.Clean(path)

	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &loadEntry{}
		l.entries[key] = entry
	}
	l.mu.Unlock()

	entry.once.Do(func() {
		entry.model, entry.err = l.read(key)
	})
	if entry.err != nil {
		l.mu.Lock()
		if l.entries[key] == entry {
			delete(l.entries, key)
		}
		l.mu.Unlock()
		return nil, entry.err
	}
	return entry.model, nil
}

func (l *Loader) read(path string) (Model, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, path, err)
	}

	model, err := l.decode(path)
	if err != nil {
		if errors.Is(err, ErrModelNotFound) || errors.Is(err, ErrModelLoad) {
			return nil, err
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, path, err)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: %s: decoder returned no model", ErrModelLoad, path)
	}
	return model, nil
}
