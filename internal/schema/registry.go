package schema

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v4"
)

// Registry holds validated schemas by name for callers that probe one
// candidate buffer against several protocols. Safe for concurrent use;
// registering a name again replaces the previous schema.
type Registry struct {
	schemas *xsync.Map[string, *FrameSchema]
}

func NewRegistry() *Registry {
	return &Registry{schemas: xsync.NewMap[string, *FrameSchema]()}
}

// Register validates s and stores it under its name.
func (r *Registry) Register(s *FrameSchema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.schemas.Store(s.Name, s)
	return nil
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (*FrameSchema, bool) {
	return r.schemas.Load(name)
}

// Names returns the registered schema names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0)
	r.schemas.Range(func(name string, _ *FrameSchema) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}
