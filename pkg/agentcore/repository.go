package agentcore

import "github.com/gitiris/agentcore/pkg/repository"

// FromRepositoryError translates a *repository.RepositoryError into the
// agent core's sum-typed Error, preserving the original as Err so callers
// can still errors.Unwrap to it. Errors that aren't a *RepositoryError are
// wrapped as an opaque KindRepository failure rather than dropped, since
// every repository-facade failure belongs in this family regardless of
// shape.
func FromRepositoryError(err error) *Error {
	if err == nil {
		return nil
	}
	repoErr, ok := err.(*repository.RepositoryError)
	if !ok {
		return &Error{Kind: KindRepository, Message: err.Error(), Err: err}
	}

	var reason RepositoryErrorKind
	switch repoErr.Kind {
	case repository.ErrNotARepository:
		reason = RepositoryNotARepository
	case repository.ErrInvalidRef:
		reason = RepositoryInvalidRef
	default:
		reason = RepositoryIO
	}

	return &Error{
		Kind:             KindRepository,
		RepositoryReason: reason,
		Message:          repoErr.Op + ": " + repoErr.Error(),
		Err:              repoErr,
	}
}
