package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const snapshotVersion = 1

var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

type snapshot struct {
	Version int    `json:"version"`
	Lines   []Line `json:"lines"`
}

func (s *Store) MarshalSnapshot() ([]byte, error) {
	lines := s.lines
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(snapshot{Version: snapshotVersion, Lines: lines})
	if err != nil {
		return nil, fmt.Errorf("marshal cart snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot is the strict decoder: any malformed or invalid content is an error.
func DecodeSnapshot(data []byte) (*Store, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, snap.Version)
	}
	if err := validateLines(snap.Lines); err != nil {
		return nil, err
	}
	return &Store{lines: snap.Lines}, nil
}

// UnmarshalSnapshot loads a persisted cart. A corrupted snapshot loads as an empty cart.
func UnmarshalSnapshot(data []byte) *Store {
	s, err := DecodeSnapshot(data)
	if err != nil {
		return New()
	}
	return s
}

// Restore builds a Store from lines read back from storage, with the same
// corrupted-means-empty rule as UnmarshalSnapshot.
func Restore(lines []Line) *Store {
	if err := validateLines(lines); err != nil {
		return New()
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return &Store{lines: out}
}

func validateLines(lines []Line) error {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if l.ProductID == uuid.Nil {
			return fmt.Errorf("%w: line without product id", ErrCorruptSnapshot)
		}
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("%w: duplicate product %s", ErrCorruptSnapshot, l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
		if l.Quantity < 1 {
			return fmt.Errorf("%w: quantity %d for product %s", ErrCorruptSnapshot, l.Quantity, l.ProductID)
		}
		if l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: negative price for product %s", ErrCorruptSnapshot, l.ProductID)
		}
	}
	return nil
}
