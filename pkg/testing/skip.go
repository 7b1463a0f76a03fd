package testing

import (
	"flag"
	"os"
	"testing"
)

// SkipContainers reports whether container-backed tests should not run:
// with -short or when SKIP_CONTAINER_TESTS=true.
func SkipContainers() bool {
	if !flag.Parsed() {
		flag.Parse()
	}
	return testing.Short() || os.Getenv("SKIP_CONTAINER_TESTS") == "true"
}
