package membershiprepo

import "errors"

// ErrNotFound indicates no membership export has been imported yet.
var ErrNotFound = errors.New("no membership import found")
