package service

import (
	"errors"

	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/platform/sentinel"
)

// Store errors are translated exactly once, here. Domain errors from
// collaborators (validation, admission, idgen) pass through untouched.

type storeErrorMapping struct {
	sentinel error
	code     dErrors.Code
	message  string
}

var storeErrorMappings = []storeErrorMapping{
	{sentinel.ErrNotFound, dErrors.CodeNotFound, "session not found"},
	{sentinel.ErrConflict, dErrors.CodeConflict, "session already exists"},
	{sentinel.ErrInvalidInput, dErrors.CodeBadRequest, "invalid session data"},
}

func translateStoreError(err error, op string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	for _, m := range storeErrorMappings {
		if errors.Is(err, m.sentinel) {
			return dErrors.Wrap(err, m.code, m.message)
		}
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}

var (
	errSessionInvalid = dErrors.New(dErrors.CodeSessionInvalid, "session is not recognized")
	errSessionExpired = dErrors.New(dErrors.CodeSessionExpired, "session has expired")
	errCloseNotFound  = dErrors.New(dErrors.CodeNotFound, "no active session with that id")
)
