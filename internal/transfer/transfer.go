// Package transfer serializes the vehicle collection to and from a portable
// JSON document for backup and restore.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ukydev/carlog/internal/models"
)

// ExportFilename is the fixed name of the backup file offered to the user.
const ExportFilename = "parco-auto.json"

// ErrNothingToExport is returned when the collection is empty. It is reported
// to the user, not a crash.
var ErrNothingToExport = errors.New("nothing to export")

// MalformedImportError reports an import that could not be parsed, carrying
// the underlying parser message for the user.
type MalformedImportError struct {
	Err error
}

func (e *MalformedImportError) Error() string {
	return fmt.Sprintf("malformed import: %v", e.Err)
}

func (e *MalformedImportError) Unwrap() error { return e.Err }

// ExportJSON serializes the full collection as an indented JSON array. Field
// names are preserved verbatim so a round trip through ImportJSON is lossless.
func ExportJSON(vehicles []models.Vehicle) ([]byte, error) {
	if len(vehicles) == 0 {
		return nil, ErrNothingToExport
	}
	data, err := json.MarshalIndent(vehicles, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export vehicles: %w", err)
	}
	return data, nil
}

// ImportJSON parses a backup document. The top-level value must be a JSON
// array; each element must decode into a vehicle. On failure the prior
// collection is untouched because nothing is returned to replace it with.
func ImportJSON(data []byte) ([]models.Vehicle, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedImportError{Err: err}
	}

	vehicles := make([]models.Vehicle, 0, len(raw))
	for i, elem := range raw {
		var v models.Vehicle
		if err := json.Unmarshal(elem, &v); err != nil {
			return nil, &MalformedImportError{Err: fmt.Errorf("vehicle %d: %w", i, err)}
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, nil
}
