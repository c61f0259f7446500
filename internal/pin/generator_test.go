package pin

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locker-pass-manager/backend/internal/apperr"
)

func TestCreatePasscodeShapeOverManyDraws(t *testing.T) {
	g := NewGenerator()
	for i := 0; i < 1000; i++ {
		code := g.CreatePasscode()
		s := strconv.Itoa(code)
		require.Len(t, s, DefaultLength, "code %d", code)
		for _, run := range deniedRuns {
			require.NotContains(t, s, run)
		}
		require.NoError(t, ValidatePasscode(code))
	}
}

func TestCreatePasscodeRetriesDeniedRuns(t *testing.T) {
	// 100000 + 11100 = 111100 (denied), then 100000 + 23456 = 123456.
	draws := []int{11100, 23456}
	calls := 0
	g := newGeneratorWithSource(func(n int) int {
		assert.Equal(t, 900000, n)
		v := draws[calls]
		calls++
		return v
	})

	assert.Equal(t, 123456, g.CreatePasscode())
	assert.Equal(t, 2, calls)
}

func TestHasDeniedRun(t *testing.T) {
	assert.True(t, HasDeniedRun("120003"))
	assert.True(t, HasDeniedRun("999123"))
	assert.False(t, HasDeniedRun("121212"))
	assert.False(t, HasDeniedRun("100200"))
}

func TestValidatePasscode(t *testing.T) {
	assert.NoError(t, ValidatePasscode(123456))
	assert.NoError(t, ValidatePasscode(1234567))

	for _, code := range []int{0, -123456, 12345} {
		err := ValidatePasscode(code)
		assert.ErrorIs(t, err, apperr.ErrIllegalParameter, "code %d", code)
	}
}
