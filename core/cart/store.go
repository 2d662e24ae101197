package cart

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is the durable home of the serialized cart: one value under one
// namespaced key. Load returns nil data when nothing was saved yet.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

func Encode(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding cart: %w", err)
	}
	return b, nil
}

// Decode reads a serialized cart. Empty input is an empty cart. Entries
// without an id and repeated ids are dropped, keeping the first occurrence.
func Decode(data []byte) ([]Item, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding cart: %w", err)
	}

	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
