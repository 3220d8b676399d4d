package tree

// Error represents an error related with trees
type Error string

/*
ErrUnconfigured is the error returned when asking a tree that has
no root rule for predictions or statistics.
*/
const ErrUnconfigured = Error("tree has no rule configured")

func (e Error) Error() string {
	return string(e)
}
