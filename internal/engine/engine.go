// Package engine defines the capability surface the supervisor drives
// during bring-up. Implementations own the protocol runtime and the
// transactional datastore semantics; the supervisor only sequences the
// calls and treats any non-success return as fatal to the current run.
package engine

// InitMode selects the operating mode of the engine runtime.
type InitMode int

const (
	// ModeSingleLayer runs the engine as a self-contained server.
	ModeSingleLayer InitMode = iota
	// ModeMultilayer runs the engine for a split client/server network
	// topology.
	ModeMultilayer
)

// DatastoreKind selects the backing store of a datastore instance.
type DatastoreKind int

const (
	// KindFile keeps the configuration in a plain file backing store.
	KindFile DatastoreKind = iota
)

// ID identifies an initialized datastore instance. Negative values
// signal a failed initialization.
type ID int64

// Callbacks is the transaction-apply table bound to a datastore. The
// supervisor treats it as opaque; the engine invokes it while applying
// configuration and during device-level initialization.
type Callbacks interface {
	Name() string
	DeviceInit() error
}

// Datastore is one transactional datastore instance acquired during
// bring-up. Close releases the instance; releasing an instance that was
// never initialized is allowed.
type Datastore interface {
	SetBackingPath(path string)
	Close()
}

// Engine is the narrow contract the supervisor consumes.
type Engine interface {
	Init(mode InitMode) error
	RegisterModel(path string) error
	CreateDatastore(kind DatastoreKind, modelPath string, cbs Callbacks) (Datastore, error)
	EnableFeature(model, feature string) error
	InitDatastore(ds Datastore) (ID, error)
	Consolidate() error
	DeviceInit(id ID) error
	Close()
}
