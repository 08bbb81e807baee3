// Package guard flips binaries into test mode when imported for side effects.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("QUDRAT_TEST_MODE") == "" {
			_ = os.Setenv("QUDRAT_TEST_MODE", "1")
		}
	})
}
