package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("OPENAUDIT_TEST_MODE") == "" {
			_ = os.Setenv("OPENAUDIT_TEST_MODE", "1")
		}
	})
}
