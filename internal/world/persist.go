package world

import (
	"errors"

	"github.com/shuidong/block-game/internal/coord"
)

// ErrColumnNotFound is returned by a Persister that holds no data for a column.
var ErrColumnNotFound = errors.New("column not found")

// Persister stores columns between sessions. LoadColumn returns an error
// wrapping ErrColumnNotFound when nothing is stored; any other error is
// logged by the store and the column is regenerated.
type Persister interface {
	SaveColumn(col *Column) error
	LoadColumn(pos coord.Column, dims Dimensions) (*Column, error)
}
