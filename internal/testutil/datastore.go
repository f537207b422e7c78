package testutil

import (
	"fmt"
	"strings"
)

// NewTestDSN generates a DSN for an in-memory SQLite database named after
// the test. Subtest separators are replaced so t.Name() can be passed as is.
func NewTestDSN(testName string) string {
	name := strings.NewReplacer("/", "_", " ", "_", "?", "_").Replace(testName)
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}
