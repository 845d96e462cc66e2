//go:build !cgo

package portmidi

import (
	"testing"

	"github.com/leandrodaf/synthctl/internal/logger"
	"github.com/leandrodaf/synthctl/sdk/contracts"
	"github.com/stretchr/testify/assert"
)

func TestNewWithoutCgo(t *testing.T) {
	tr, err := New(&contracts.ClientOptions{Logger: logger.NewNop()})
	assert.Nil(t, tr)
	assert.ErrorIs(t, err, ErrUnavailable)
}
