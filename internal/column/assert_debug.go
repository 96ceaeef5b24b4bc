//go:build worlddebug

package column

import "fmt"

func assertFinite(s *ColumnSample, wpos fmt.Stringer) {
	if !s.Finite() {
		panic(fmt.Sprintf("column: non-finite sample at %v: %+v", wpos, *s))
	}
}
