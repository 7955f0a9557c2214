package pgvault

// Zeroize overwrites buf with zeros in place. The explicit byte-at-a-time
// loop (rather than a single clear(buf) or copy) is there to discourage the
// compiler from eliding the write as dead code once buf is otherwise
// unused; Go gives no formal guarantee against this, so callers must treat
// this as best-effort only. Earlier copies of the data made by the runtime,
// by I/O buffers along the way, or by the memory allocator are not reached
// and may still be recoverable from a memory dump.
func Zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
