package agentcore

import (
	"errors"
	"testing"

	"github.com/gitiris/agentcore/pkg/repository"
)

func TestFromRepositoryErrorNil(t *testing.T) {
	if err := FromRepositoryError(nil); err != nil {
		t.Errorf("FromRepositoryError(nil) = %v, want nil", err)
	}
}

func TestFromRepositoryErrorMapsKnownKinds(t *testing.T) {
	tests := []struct {
		kind       repository.ErrorKind
		wantReason RepositoryErrorKind
	}{
		{repository.ErrNotARepository, RepositoryNotARepository},
		{repository.ErrInvalidRef, RepositoryInvalidRef},
		{repository.ErrIO, RepositoryIO},
	}
	for _, tt := range tests {
		repoErr := &repository.RepositoryError{Kind: tt.kind, Op: "status", Err: errors.New("boom")}
		got := FromRepositoryError(repoErr)
		if got.Kind != KindRepository {
			t.Errorf("Kind = %v, want %v", got.Kind, KindRepository)
		}
		if got.RepositoryReason != tt.wantReason {
			t.Errorf("RepositoryReason = %v, want %v", got.RepositoryReason, tt.wantReason)
		}
		if !errors.Is(got, repoErr) && errors.Unwrap(got) != repoErr {
			t.Error("FromRepositoryError() did not preserve the original error for unwrapping")
		}
	}
}

func TestFromRepositoryErrorUnknownKindDefaultsToIO(t *testing.T) {
	repoErr := &repository.RepositoryError{Kind: repository.ErrorKind("something_new"), Op: "log", Err: errors.New("boom")}
	got := FromRepositoryError(repoErr)
	if got.RepositoryReason != RepositoryIO {
		t.Errorf("RepositoryReason = %v, want %v (default fallback)", got.RepositoryReason, RepositoryIO)
	}
}

func TestFromRepositoryErrorWrapsNonRepositoryError(t *testing.T) {
	plain := errors.New("not a repository error")
	got := FromRepositoryError(plain)
	if got.Kind != KindRepository {
		t.Errorf("Kind = %v, want %v", got.Kind, KindRepository)
	}
	if errors.Unwrap(got) != plain {
		t.Error("FromRepositoryError() should preserve a non-RepositoryError cause via Unwrap")
	}
}
