// Package testing flips the process into test mode. Test packages import it
// for side effects so binaries never start listeners or workers under go test.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

// TestSecret is a signing secret long enough for the token issuer.
const TestSecret = "odyssey-test-secret-0123456789abcdef"

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("ODYSSEY_TEST_MODE", "1")
		if os.Getenv("JWT_SECRET") == "" {
			_ = os.Setenv("JWT_SECRET", TestSecret)
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
