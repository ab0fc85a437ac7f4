package contenthash

import "fmt"

// MissingRootError reports that the build context root does not exist or is
// not a directory.
type MissingRootError struct {
	Path string
	Err  error
}

func (e *MissingRootError) Error() string {
	return fmt.Sprintf("context root %s: %s", e.Path, e.Err)
}

func (e *MissingRootError) Unwrap() error {
	return e.Err
}

// MissingInputError reports that a declared auxiliary file does not exist.
type MissingInputError struct {
	Path string
	Err  error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("input file %s: %s", e.Path, e.Err)
}

func (e *MissingInputError) Unwrap() error {
	return e.Err
}
