package session

// KV is the synchronous key-value surface the persisted session record lives in.
// Each call is atomic: a reader never observes part of a SetMany or Delete.
type KV interface {
	// GetMany returns the values for the keys that exist; missing keys are absent from the map
	GetMany(keys ...string) (map[string]string, error)

	// SetMany writes all values in one batch
	SetMany(values map[string]string) error

	// Delete removes all keys in one batch. Deleting missing keys is not an error.
	Delete(keys ...string) error
}
