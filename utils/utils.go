package utils

// BytesToInt converts a byte slice (e.g., from a SHA256 sum) to an int64.
// Used for deriving deterministic sampler seeds from hashes.
func BytesToInt(b []byte) int64 {
	var i int64
	for idx, val := range b {
		if idx >= 8 {
			break
		}
		i = (i << 8) | int64(val)
	}
	return i
}
