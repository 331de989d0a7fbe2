package checkpointer

import "fmt"

// fileEnumerator hands out consecutively numbered filenames
type fileEnumerator struct {
	i         int
	name      string
	extension string
}

func (f *fileEnumerator) filename() string {
	f.i++
	return fmt.Sprintf("%v%v%v", f.name, f.i, f.extension)
}

// FilenameEnumerator returns a filename source for checkpointers that
// must never overwrite an earlier checkpoint: each call appends the
// next integer after start to filename, before the extension. The
// filename parameter carries any leading path.
func FilenameEnumerator(start int, filename, extension string) func() string {
	enum := fileEnumerator{i: start, name: filename, extension: extension}

	return enum.filename
}
