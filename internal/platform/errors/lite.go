package errors

import (
	stderrs "errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func liteCode(err error) (int, bool) {
	var le *sqlite.Error
	if stderrs.As(err, &le) {
		return le.Code(), true
	}
	return 0, false
}

func isLiteUnique(err error) bool {
	code, ok := liteCode(err)
	return ok && (code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

// IsLiteBusy reports whether a sqlite error is a lock contention worth retrying
func IsLiteBusy(err error) bool {
	code, ok := liteCode(err)
	if !ok {
		return false
	}
	// extended codes carry the primary code in the low byte
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
