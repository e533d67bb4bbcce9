package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Validationf("bad %s", "month"), KindValidation},
		{NotFoundf("driver %d", 3), KindNotFound},
		{Conflictf("vehicle in use"), KindConflict},
		{StorageErr("insert driver", errors.New("disk full")), KindStorage},
		{fmt.Errorf("save: %w", context.DeadlineExceeded), KindTimeout},
		{ErrTimeout, KindTimeout},
		{fmt.Errorf("request canceled: %w", context.Canceled), KindCanceled},
		{errors.New("boom"), KindInternal},
	}
	for i, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("case %d: KindOf = %q, want %q", i, got, tc.want)
		}
	}
}

func TestStorageErrWrapsBoth(t *testing.T) {
	cause := errors.New("locked")
	err := StorageErr("update loan", cause)
	if !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Fatalf("expected both sentinel and cause in chain: %v", err)
	}
	if StorageErr("noop", nil) != nil {
		t.Fatalf("nil cause should yield nil")
	}
}
