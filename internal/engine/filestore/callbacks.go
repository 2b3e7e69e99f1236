package filestore

// ServerCallbacks is the callback table bound to the server's own
// configuration datastore. The transaction-apply semantics belong to the
// protocol runtime; the embedded engine only exercises the device-init
// hook.
type ServerCallbacks struct {
	name string
}

// NewServerCallbacks creates a named server callback table.
func NewServerCallbacks(name string) *ServerCallbacks {
	return &ServerCallbacks{name: name}
}

func (c *ServerCallbacks) Name() string { return c.name }

func (c *ServerCallbacks) DeviceInit() error { return nil }
