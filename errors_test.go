package unionfs

import (
	"io/fs"
	"testing"

	"github.com/spf13/afero"
)

func TestIsNotFoundWrapsPathError(t *testing.T) {
	err := pathErr("stat", "/missing.txt", ErrNotFound)
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound to match a wrapped ErrNotFound, got %v", err)
	}
	var pe *fs.PathError
	if pe, _ = err.(*fs.PathError); pe == nil {
		t.Fatalf("expected pathErr to produce a *fs.PathError, got %T", err)
	}
	if pe.Op != "stat" || pe.Path != "/missing.txt" {
		t.Fatalf("unexpected PathError fields: %+v", pe)
	}
}

func TestPathErrDoesNotDoubleWrap(t *testing.T) {
	inner := &fs.PathError{Op: "open", Path: "/a", Err: ErrPermission}
	wrapped := pathErr("stat", "/b", inner)
	if wrapped != inner {
		t.Fatalf("expected pathErr to leave an existing *fs.PathError untouched, got %v", wrapped)
	}
}

func TestIsInvalidArgumentMatchesSyncCallRejection(t *testing.T) {
	if !IsInvalidArgument(ErrInvalidSyncCall) {
		t.Fatal("expected IsInvalidArgument to match ErrInvalidSyncCall")
	}
}

func TestIsPermissionMatchesNotInitialized(t *testing.T) {
	e, err := New(afero.NewMemMapFs(), afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, statErr := e.Stat("/anything")
	if !IsPermission(statErr) {
		t.Fatalf("expected IsPermission to match an uninitialized-engine error, got %v", statErr)
	}
}
