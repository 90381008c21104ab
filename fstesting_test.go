package unionfs

import (
	"testing"

	"github.com/absfs/fstesting"
	"github.com/spf13/afero"
)

// TestEngineSuite runs the absfs conformance suite against Engine's
// absfs.FileSystem adapter. Symlinks stay disabled: the union never
// reports SupportsLinks, so the adapter doesn't implement
// absfs.SymlinkFileSystem.
func TestEngineSuite(t *testing.T) {
	e, err := New(afero.NewMemMapFs(), afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if err := e.InitializeSync(); err != nil {
		t.Fatalf("failed to initialize engine: %v", err)
	}

	suite := &fstesting.Suite{
		FS: e.FileSystem(),
		Features: fstesting.Features{
			Symlinks:      false,
			HardLinks:     false,
			Permissions:   true,
			Timestamps:    true,
			CaseSensitive: true,
			AtomicRename:  true,
			SparseFiles:   false,
			LargeFiles:    true,
		},
	}

	suite.Run(t)
}
