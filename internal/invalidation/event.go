// Package invalidation defines the change events exchanged between API instances.
package invalidation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Version = 1

	OpReplace = "replace"

	LayerLandUse = "land_use"
)

// Event announces that a layer changed and cached responses for it are stale.
type Event struct {
	Version  int       `json:"version"`
	ID       string    `json:"id"`
	Op       string    `json:"op"`
	Layer    string    `json:"layer"`
	TS       time.Time `json:"ts"`
	Inserted int       `json:"inserted"`
	Source   string    `json:"source,omitempty"`
}

// NewReplace builds the event emitted after a full land-use replacement.
func NewReplace(source string, inserted int, now time.Time) Event {
	return Event{
		Version:  Version,
		ID:       uuid.NewString(),
		Op:       OpReplace,
		Layer:    LayerLandUse,
		TS:       now.UTC(),
		Inserted: inserted,
		Source:   source,
	}
}

func (e Event) Validate() error {
	if e.Version != Version {
		return fmt.Errorf("version must be %d", Version)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return fmt.Errorf("id must be a uuid: %w", err)
	}
	if e.Op != OpReplace {
		return fmt.Errorf("op must be %s", OpReplace)
	}
	if strings.TrimSpace(e.Layer) == "" {
		return errors.New("layer is required")
	}
	if e.TS.IsZero() {
		return errors.New("ts is required")
	}
	if e.Inserted < 0 {
		return errors.New("inserted must not be negative")
	}
	return nil
}
