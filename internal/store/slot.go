package store

import (
	"context"
	"encoding/json"
)

// Slot is one JSON document stored under a fixed key.
type Slot[T any] struct {
	KV        *KV
	Namespace string
	Key       string
}

// Load returns ok=false when the key is missing or holds data that no longer decodes.
func (s Slot[T]) Load(ctx context.Context) (T, bool, error) {
	var zero T
	raw, ok, err := s.KV.Get(ctx, s.Namespace, s.Key)
	if err != nil || !ok {
		return zero, false, err
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		// Best-effort; if corrupted, treat as missing.
		return zero, false, nil
	}
	return v, true, nil
}

func (s Slot[T]) Save(ctx context.Context, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.KV.Set(ctx, s.Namespace, s.Key, string(b))
}

func (s Slot[T]) Clear(ctx context.Context) error {
	return s.KV.Delete(ctx, s.Namespace, s.Key)
}
