package workflow

// NOTE: These tests are intentionally DB-free. Retry and locking behavior
// against a live server is covered by the INTEGRATION_TESTS suite in models.

import (
	"database/sql"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsolationLevelMapping(t *testing.T) {
	cases := []struct {
		configured string
		want       sql.IsolationLevel
	}{
		{"READ COMMITTED", sql.LevelReadCommitted},
		{"SERIALIZABLE", sql.LevelSerializable},
		{"REPEATABLE READ", sql.LevelRepeatableRead},
		{"", sql.LevelRepeatableRead},
		{"bogus", sql.LevelRepeatableRead},
	}
	for _, c := range cases {
		if got := isolationLevel(c.configured); got != c.want {
			t.Errorf("isolationLevel(%q) = %v, want %v", c.configured, got, c.want)
		}
	}
}

func TestIsRetryableTxError(t *testing.T) {
	if !isRetryableTxError(&mysql.MySQLError{Number: 1213, Message: "deadlock found"}) {
		t.Error("deadlock should be retryable")
	}
	if !isRetryableTxError(&mysql.MySQLError{Number: 1205, Message: "lock wait timeout"}) {
		t.Error("lock wait timeout should be retryable")
	}
	if isRetryableTxError(&mysql.MySQLError{Number: 1062, Message: "duplicate entry"}) {
		t.Error("duplicate key is not retryable")
	}
	if isRetryableTxError(sql.ErrTxDone) {
		t.Error("non-mysql errors are not retryable")
	}
}
