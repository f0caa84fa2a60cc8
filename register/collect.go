package register

// collect reads every cell once, keeping the stamps alongside the values.
func (a *Array) collect(values Snapshot, stamps []uint32) {
	for i := range a.cells {
		values[i], stamps[i] = unpack(a.cells[i].Load())
	}
}

// DoubleCollect takes a clean snapshot by collecting the array twice and
// accepting the result only when no stamp changed in between. It retries
// while writers interfere. With maxAttempts > 0 it gives up after that many
// collects and returns the last one with clean set to false. Attempts counts
// the collects performed.
func (a *Array) DoubleCollect(maxAttempts int) (
	snapshot Snapshot,
	attempts int,
	clean bool,
) {
	n := len(a.cells)
	prevValues, prevStamps := make(Snapshot, n), make([]uint32, n)
	values, stamps := make(Snapshot, n), make([]uint32, n)

	a.collect(prevValues, prevStamps)
	attempts = 1

	for {
		if maxAttempts > 0 && attempts >= maxAttempts {
			return prevValues, attempts, false
		}

		a.collect(values, stamps)
		attempts++

		if sameStamps(prevStamps, stamps) {
			return values, attempts, true
		}

		prevValues, values = values, prevValues
		prevStamps, stamps = stamps, prevStamps
	}
}

func sameStamps(a, b []uint32) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
