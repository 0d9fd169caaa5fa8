package document

import (
	"fmt"
	"os"

	"mintada/internal/fileops"
)

// Edit is a transformation of a page's markup. It reports whether it changed
// anything.
type Edit func(doc string) (string, bool, error)

// Text adapts a string edit into an Edit.
func Text(fn func(doc string) (string, bool)) Edit {
	return func(doc string) (string, bool, error) {
		out, changed := fn(doc)
		return out, changed, nil
	}
}

// PromoteEdit wraps Promote as an Edit.
func PromoteEdit(promoted Faces, demoted *Faces) Edit {
	return func(doc string) (string, bool, error) {
		out, err := Promote(doc, promoted, demoted)
		if err != nil {
			return doc, false, err
		}
		return out, out != doc, nil
	}
}

// ApplyFile runs edits in order against the page at path and writes the
// result back atomically when any of them changed it. A missing page is
// reported as an error wrapping fs.ErrNotExist.
func ApplyFile(path string, edits ...Edit) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read document: %w", err)
	}
	doc := string(data)
	changed := false
	for _, edit := range edits {
		out, ok, err := edit(doc)
		if err != nil {
			return false, err
		}
		if ok {
			doc, changed = out, true
		}
	}
	if !changed {
		return false, nil
	}
	if err := fileops.WriteFileAtomic(path, []byte(doc)); err != nil {
		return false, fmt.Errorf("write document: %w", err)
	}
	return true, nil
}
