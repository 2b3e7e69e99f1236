// Package filestore is a minimal file-backed engine implementation. It
// satisfies the engine contract well enough to host the supervisor end
// to end: models are validated and recorded, datastore instances bind to
// a backing file, and device-level init runs the callback table's hook.
// Wire protocol and transaction semantics live outside this package.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/nconfd/nconfd/internal/engine"
)

var (
	ErrAlreadyInitialized = errors.New("filestore: engine already initialized")
	ErrNotInitialized     = errors.New("filestore: engine not initialized")
	ErrEmptyModelPath     = errors.New("filestore: empty model path")
	ErrNilCallbacks       = errors.New("filestore: nil callback table")
	ErrForeignDatastore   = errors.New("filestore: datastore not owned by this engine")
	ErrDatastoreClosed    = errors.New("filestore: datastore already closed")
	ErrNoBackingPath      = errors.New("filestore: datastore has no backing path")
	ErrUnknownInstance    = errors.New("filestore: unknown datastore instance")
	ErrNoModels           = errors.New("filestore: no models registered")
	ErrNotConsolidated    = errors.New("filestore: models not consolidated")
	ErrEmptyFeature       = errors.New("filestore: empty model or feature name")
)

// Engine is a file-backed engine runtime.
type Engine struct {
	mu           sync.Mutex
	mode         engine.InitMode
	initialized  bool
	consolidated bool
	models       map[string]struct{}
	features     map[string][]string
	instances    map[engine.ID]*Datastore
	nextID       engine.ID
}

// New creates an uninitialized file-backed engine.
func New() *Engine {
	return &Engine{
		models:    make(map[string]struct{}),
		features:  make(map[string][]string),
		instances: make(map[engine.ID]*Datastore),
	}
}

// Init brings the engine runtime up in the given mode.
func (e *Engine) Init(mode engine.InitMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return ErrAlreadyInitialized
	}
	e.mode = mode
	e.initialized = true
	return nil
}

// RegisterModel records a schema model file. Registering the same path
// again is a no-op; any new model invalidates a prior consolidation.
func (e *Engine) RegisterModel(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registerModelLocked(path)
}

func (e *Engine) registerModelLocked(path string) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrEmptyModelPath
	}
	if _, ok := e.models[path]; ok {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("filestore: model %s: %w", path, err)
	}
	e.models[path] = struct{}{}
	e.consolidated = false
	return nil
}

// CreateDatastore creates a transactional datastore instance bound to the
// given model and callback table. The instance is not usable until a
// backing path is set and InitDatastore ran.
func (e *Engine) CreateDatastore(kind engine.DatastoreKind, modelPath string, cbs engine.Callbacks) (engine.Datastore, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cbs == nil {
		return nil, ErrNilCallbacks
	}
	if err := e.registerModelLocked(modelPath); err != nil {
		return nil, err
	}
	return &Datastore{
		owner:     e,
		kind:      kind,
		modelPath: strings.TrimSpace(modelPath),
		cbs:       cbs,
		id:        -1,
	}, nil
}

// EnableFeature turns on a named optional feature of a registered model.
func (e *Engine) EnableFeature(model, feature string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ErrNotInitialized
	}
	model = strings.TrimSpace(model)
	feature = strings.TrimSpace(feature)
	if model == "" || feature == "" {
		return ErrEmptyFeature
	}
	for _, f := range e.features[model] {
		if f == feature {
			return nil
		}
	}
	e.features[model] = append(e.features[model], feature)
	return nil
}

// InitDatastore initializes the instance against its backing file and
// assigns its identifier. The backing file is created when absent.
func (e *Engine) InitDatastore(ds engine.Datastore) (engine.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := ds.(*Datastore)
	if !ok || d.owner != e {
		return -1, ErrForeignDatastore
	}
	if d.closed {
		return -1, ErrDatastoreClosed
	}
	if d.backingPath == "" {
		return -1, ErrNoBackingPath
	}
	f, err := os.OpenFile(d.backingPath, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return -1, fmt.Errorf("filestore: backing store %s: %w", d.backingPath, err)
	}
	if err := f.Close(); err != nil {
		return -1, fmt.Errorf("filestore: backing store %s: %w", d.backingPath, err)
	}
	id := e.nextID
	e.nextID++
	d.id = id
	e.instances[id] = d
	return id, nil
}

// Consolidate merges all registered models into one consistent view.
func (e *Engine) Consolidate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return ErrNotInitialized
	}
	if len(e.models) == 0 {
		return ErrNoModels
	}
	e.consolidated = true
	return nil
}

// DeviceInit performs device-level initialization of an initialized
// instance through its callback table.
func (e *Engine) DeviceInit(id engine.ID) error {
	e.mu.Lock()
	d, ok := e.instances[id]
	consolidated := e.consolidated
	e.mu.Unlock()
	if !ok {
		return ErrUnknownInstance
	}
	if !consolidated {
		return ErrNotConsolidated
	}
	if err := d.cbs.DeviceInit(); err != nil {
		return fmt.Errorf("filestore: device init %s: %w", d.cbs.Name(), err)
	}
	return nil
}

// Close shuts the engine runtime down, releasing every instance and all
// registered state. The engine can be initialized again afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, d := range e.instances {
		d.closed = true
		delete(e.instances, id)
	}
	e.models = make(map[string]struct{})
	e.features = make(map[string][]string)
	e.consolidated = false
	e.initialized = false
	e.nextID = 0
}

// Features reports the enabled features of a model in enable order.
func (e *Engine) Features(model string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.features[model]))
	copy(out, e.features[model])
	return out
}

// Datastore is one file-backed datastore instance.
type Datastore struct {
	owner       *Engine
	kind        engine.DatastoreKind
	modelPath   string
	backingPath string
	cbs         engine.Callbacks
	id          engine.ID
	closed      bool
}

// SetBackingPath binds the instance to a concrete storage location.
func (d *Datastore) SetBackingPath(path string) {
	d.owner.mu.Lock()
	defer d.owner.mu.Unlock()
	d.backingPath = strings.TrimSpace(path)
}

// Close releases the instance. Closing twice is allowed.
func (d *Datastore) Close() {
	d.owner.mu.Lock()
	defer d.owner.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.id >= 0 {
		delete(d.owner.instances, d.id)
	}
}

// ID returns the assigned instance identifier, -1 before initialization.
func (d *Datastore) ID() engine.ID {
	d.owner.mu.Lock()
	defer d.owner.mu.Unlock()
	return d.id
}
