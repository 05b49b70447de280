package resolve

import (
	"fmt"
	"strings"
)

// CycleError reports a cyclic dependency sub-graph. Path holds the full
// cycle, starting and ending with the same target name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}
