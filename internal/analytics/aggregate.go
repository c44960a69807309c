package analytics

// Aggregate folds raw records into per-key accumulator states. For each
// record the key function decides the owning dimension; records whose key
// function reports ok=false (null or missing dimension) are skipped, not
// errors. The first record for a key seeds the state via init, every
// subsequent record is folded in via update. Update must be
// order-independent per key (running sums, counts, sets), so feeding the
// same records in any permutation yields the same final states.
func Aggregate[R any, K comparable, S any](
	records []R,
	key func(R) (K, bool),
	init func(R) S,
	update func(S, R) S,
) map[K]S {
	states := make(map[K]S, len(records))
	for _, record := range records {
		k, ok := key(record)
		if !ok {
			continue
		}
		if state, exists := states[k]; exists {
			states[k] = update(state, record)
		} else {
			states[k] = init(record)
		}
	}
	return states
}

// Keys returns the distinct keys of the aggregated states.
func Keys[K comparable, S any](states map[K]S) []K {
	keys := make([]K, 0, len(states))
	for k := range states {
		keys = append(keys, k)
	}
	return keys
}
