package engine

import "errors"

// ErrQuestionNotFound is returned for unknown question ids.
var ErrQuestionNotFound = errors.New("question not found")
