// Package settings keeps small device preferences in a JSON file next to the
// database.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"lancamentos/internal/core"
	"lancamentos/internal/log"
)

// Store is a key/value store persisted as one JSON object. Every write
// rewrites the file atomically. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
	logger *log.Logger
}

// Open loads the file at path. A missing file is an empty store.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Store{
		path:   path,
		values: map[string]json.RawMessage{},
		logger: logger.WithComponent(log.ComponentSettings),
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.values); err != nil {
			return nil, fmt.Errorf("%w: settings file %s: %w", core.ErrParseFailure, path, err)
		}
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Get returns the raw JSON value of key.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Keys lists stored keys in order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores value, which must be valid JSON.
func (s *Store) Set(_ context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("%w: settings value for %q is not JSON", core.ErrConstraintViolation, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	s.values[key] = append(json.RawMessage(nil), value...)
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Reset removes keys. Absent keys are ignored; nothing is written when none
// was present.
func (s *Store) Reset(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := map[string]json.RawMessage{}
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			removed[k] = v
			delete(s.values, k)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := s.flush(); err != nil {
		for k, v := range removed {
			s.values[k] = v
		}
		return err
	}
	s.logger.InfoContext(ctx, "Settings reset", log.FieldCount, len(removed))
	return nil
}

// flush writes the file through a temporary sibling and a rename. Callers hold
// s.mu.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// DefaultPaymentMethod returns the payment method preselected for new entries.
// ok is false when none is stored.
func (s *Store) DefaultPaymentMethod(ctx context.Context) (core.PaymentMethod, bool, error) {
	raw, ok := s.Get(core.DefaultPaymentMethodKey)
	if !ok {
		return core.PaymentMethod{}, false, nil
	}
	pm, err := core.DecodePaymentMethod(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "Stored default payment method is unreadable", log.FieldError, err)
		return core.PaymentMethod{}, false, err
	}
	return pm, true, nil
}

func (s *Store) SetDefaultPaymentMethod(ctx context.Context, pm core.PaymentMethod) error {
	data, err := core.EncodePaymentMethod(pm)
	if err != nil {
		return err
	}
	return s.Set(ctx, core.DefaultPaymentMethodKey, data)
}

func (s *Store) ClearDefaultPaymentMethod(ctx context.Context) error {
	return s.Reset(ctx, core.DefaultPaymentMethodKey)
}
