// Package pin provides passcode generation and validation for lockers.
package pin

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/locker-pass-manager/backend/internal/apperr"
)

// DefaultLength is the number of decimal digits in a generated passcode.
const DefaultLength = 6

// deniedRuns are digit runs that must never appear in a generated passcode.
var deniedRuns = []string{
	"000", "111", "222", "333", "444",
	"555", "666", "777", "888", "999",
}

// Generator generates numeric passcodes for lockers.
type Generator struct {
	length int
	intN   func(n int) int
}

// NewGenerator creates a new passcode generator producing DefaultLength digits.
func NewGenerator() *Generator {
	return &Generator{
		length: DefaultLength,
		intN:   rand.IntN,
	}
}

// newGeneratorWithSource is used by tests to drive the generator deterministically.
func newGeneratorWithSource(intN func(n int) int) *Generator {
	return &Generator{length: DefaultLength, intN: intN}
}

// CreatePasscode returns a passcode with exactly DefaultLength digits that contains
// none of the denied runs. The leading digit is never zero, so the integer keeps
// its full decimal width.
func (g *Generator) CreatePasscode() int {
	low := pow10(g.length - 1)
	for {
		code := low + g.intN(pow10(g.length)-low)
		s := strconv.Itoa(code)
		if len(s) != g.length || HasDeniedRun(s) {
			continue
		}
		return code
	}
}

// HasDeniedRun reports whether code contains one of the denied three-digit runs.
func HasDeniedRun(code string) bool {
	for _, run := range deniedRuns {
		if strings.Contains(code, run) {
			return true
		}
	}
	return false
}

// ValidatePasscode checks that a passcode is positive and at least DefaultLength digits long.
func ValidatePasscode(code int) error {
	if code <= 0 {
		return apperr.IllegalParameter("passcode must be a positive number")
	}
	if len(strconv.Itoa(code)) < DefaultLength {
		return apperr.IllegalParameter("passcode must be at least %d digits", DefaultLength)
	}
	return nil
}

// pow10 returns 10^n.
func pow10(n int) int {
	result := 1
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}
