package main

import (
	"github.com/drobin/nuts-go/archive"
	"github.com/drobin/nuts-go/container"
)

// defaultMigrator registers the one legacy migration cmd/nuts knows
// about: a revision-0 container's userdata blob already held the raw
// top-id bytes verbatim (see container.TestLegacyRevision0WithMigration),
// so migrating it forward is a pass-through, not a format conversion.
func defaultMigrator() *container.Migrator {
	return container.NewMigrator().WithRev0(container.MigrationFunc(func(userdata []byte) (uint32, []byte, error) {
		return archive.ArchiveServiceID, userdata, nil
	}))
}
