package cpcstorage

import "fmt"

// New opens the storage backend named by typ. The badger backend is only
// usable when the binary was built with -tags db; NewBadgerStorage returns
// a clear error otherwise.
func New(typ Type, config *Config) (Storage, error) {
	if config == nil {
		config = DefaultConfig()
	}
	switch typ {
	case TypeMemory, "":
		return NewMemoryStorage(), nil
	case TypeBadger:
		return NewBadgerStorage(config)
	case TypeLevelDB:
		return NewLevelDBStorage(config)
	default:
		return nil, fmt.Errorf("cpcstorage: unknown backend %q", typ)
	}
}
