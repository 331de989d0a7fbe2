package checkpointer

import (
	"fmt"
	"time"
)

// FileTimer returns a filename source that stamps each checkpoint
// with the wall-clock time of the save, as nanoseconds since the Unix
// epoch. Timestamped names stay distinct across runs, where an
// enumerator would restart from its initial counter.
func FileTimer(filename, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", filename, time.Now().UnixNano(),
			extension)
	}
}
