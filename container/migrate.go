package container

// Migration converts a legacy revision-0 header's opaque userdata blob
// into the (service id, top-id bytes) pair the revision-1 layout expects.
// Callers register one Migration per legacy revision they still need to
// read; an unregistered revision-0 container opens with TopID left empty
// rather than failing outright (spec §4.D).
type Migration interface {
	// MigrateRev0 converts a revision-0 userdata payload. topID may be
	// nil/empty if the legacy data recorded no archive root.
	MigrateRev0(userdata []byte) (serviceID uint32, topID []byte, err error)
}

// MigrationFunc adapts a plain function to the Migration interface.
type MigrationFunc func(userdata []byte) (uint32, []byte, error)

func (f MigrationFunc) MigrateRev0(userdata []byte) (uint32, []byte, error) { return f(userdata) }

// Migrator is the registry of Migrations a caller supplies to Open/Read,
// one per legacy revision it knows how to convert. Only revision 0
// exists today, so the registry holds at most a single Migration, but
// the shape generalizes the way the original's Migrator kept a map keyed
// by revision number.
type Migrator struct {
	rev0 Migration
}

// NewMigrator returns an empty registry with no migrations.
func NewMigrator() *Migrator { return &Migrator{} }

// WithRev0 registers m as the revision-0 migration and returns the
// receiver for chaining.
func (mr *Migrator) WithRev0(m Migration) *Migrator {
	mr.rev0 = m
	return mr
}

// Rev0 returns the registered revision-0 migration, or nil if none was
// registered.
func (mr *Migrator) Rev0() Migration {
	if mr == nil {
		return nil
	}
	return mr.rev0
}
