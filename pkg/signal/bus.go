package signal

// Bus is the key-addressed view of vehicle state that codecs read and
// write. Unset quantities read as zero.
type Bus interface {
	Float(Key) float32
	SetFloat(Key, float32)
	Uint(Key) uint32
	SetUint(Key, uint32)

	// Stale reports whether the quantity's source message timed out.
	Stale(Key) bool
	SetStale(Key, bool)

	// Param returns a persisted configuration value.
	Param(Param) uint32
}
