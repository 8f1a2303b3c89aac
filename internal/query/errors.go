package query

import "fmt"

// TypeError reports cached data that does not match the requested type.
type TypeError struct {
	Key Key
	Got any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("query %s: unexpected data type %T", e.Key, e.Got)
}
