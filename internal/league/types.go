package league

import (
	"database/sql"
	"sync"
)

// store handles all database operations for the contest.
type store struct {
	db *sql.DB
	mu sync.RWMutex
	// now is the server clock used for lock checks at receipt time.
	now func() int64
}
