package common

import "errors"

var (
	// ErrNilArguments is returned when a function receives an unexpected nil
	ErrNilArguments = errors.New("received nil argument(s)")
	// ErrNilStrategy is returned when no strategy handler has been supplied
	ErrNilStrategy = errors.New("received nil strategy handler")
	// ErrNoBars is returned when a run is attempted without any price data
	ErrNoBars = errors.New("no bars supplied")
)
