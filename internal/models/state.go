package models

import "time"

// PersistedState - the monitoring memory stored between runs: the set of
// product ids that were in stock when the previous run completed, plus the
// time that run finished.
type PersistedState struct {
	ProductIDs []int64
	CheckedAt  time.Time
}
