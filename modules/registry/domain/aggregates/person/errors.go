package person

import "github.com/go-faster/errors"

var (
	ErrNotFound      = errors.New("person not found")
	ErrIDTaken       = errors.New("person id already exists")
	ErrUnknownStreet = errors.New("street code does not exist")
)
