package testing

import (
	"testing"

	"github.com/arloliu/tether/internal/logger"
	"github.com/arloliu/tether/types"
)

// NewTestLogger returns a Logger that writes through t.Logf, so supervisor
// output shows up next to the failing test.
func NewTestLogger(t testing.TB) types.Logger {
	return logger.NewTest(t)
}
