package qdrant

import (
	"errors"
	"fmt"
)

type statusError struct {
	operation string
	code      int
	status    string
	body      string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.operation, e.status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.operation, e.status, e.body)
}

func asStatusError(err error, target **statusError) bool {
	return err != nil && errors.As(err, target)
}
