package compute

import (
	"github.com/hashicorp/go-multierror"
)

// Releaser is any owned handle.
type Releaser interface {
	Close() error
}

// Scope collects handles acquired during one sequence and releases them in
// reverse acquisition order. Release keeps going past failures and reports
// all of them.
type Scope struct {
	held []Releaser
}

// Hold registers r for release and returns it.
func (s *Scope) Hold(r Releaser) Releaser {
	s.held = append(s.held, r)
	return r
}

// Len returns the number of handles still held.
func (s *Scope) Len() int { return len(s.held) }

// Release closes every held handle, newest first. The scope is empty afterwards.
func (s *Scope) Release() error {
	var err error
	for i := len(s.held) - 1; i >= 0; i-- {
		if cErr := s.held[i].Close(); cErr != nil {
			err = multierror.Append(err, cErr)
		}
	}
	s.held = nil
	return err
}
