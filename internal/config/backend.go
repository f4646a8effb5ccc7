package config

// Store persists non-secret keys between runs. Values travel as text and
// are parsed against the key table when the config is loaded, so a store
// never needs to know a key's type.
type Store interface {
	// Lookup returns the stored text for key and whether it was present.
	Lookup(key string) (string, bool, error)
	Put(key, value string) error
	Remove(key string) error
}

// splitKey breaks "section.name" into its two halves. Keys without a dot
// land in the "general" section.
func splitKey(key string) (section, name string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:]
		}
	}
	return "general", key
}
