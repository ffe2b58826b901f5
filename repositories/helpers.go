package repositories

import "errors"

var (
	ErrInvalidRecord  = errors.New("record failed validation")
	ErrRecordConflict = errors.New("record with this id already exists")
)
