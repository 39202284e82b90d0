package sentinel

var _ error = Error("")

// Error is an immutable error value. Two Errors are equal when their text is
// equal, which is what errors.Is compares when it walks a wrapped chain.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
