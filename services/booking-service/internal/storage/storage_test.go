package storage

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/services/booking-service/internal/model"
)

func TestWriteErrClassifies(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	cases := []struct {
		err  error
		kind apperr.Kind
		msg  string
	}{
		{unique, apperr.KindConflict, "slot taken"},
		{pgx.ErrNoRows, apperr.KindNotFound, "gone"},
		{errors.New("connection reset by peer"), apperr.KindWriteFailed, "connection reset by peer"},
	}
	for _, tc := range cases {
		err := writeErr("appointments", "slot taken", "gone", tc.err)
		e, ok := apperr.As(err)
		if !ok || e.Kind != tc.kind || e.Error() != tc.msg {
			t.Errorf("writeErr(%v) = %#v", tc.err, err)
		}
	}
	if writeErr("appointments", "", "", nil) != nil {
		t.Fatal("nil should stay nil")
	}
}

func TestReadErrClassifies(t *testing.T) {
	if !apperr.Is(readErr("appointments", "gone", pgx.ErrNoRows), apperr.KindNotFound) {
		t.Fatal("no rows should be not found")
	}
	e, _ := apperr.As(readErr("appointments", "gone", errors.New("timeout")))
	if e.Kind != apperr.KindFetchFailed || e.Table != "appointments" {
		t.Fatalf("err = %#v", e)
	}
}

func TestListWhere(t *testing.T) {
	where, args := listWhere(model.ListFilter{Status: "pending", UnreadOnly: true, From: "2025-03-01", To: "2025-03-31"}, "appointment_date")
	want := "WHERE status = $1 AND NOT is_read AND appointment_date >= $2 AND appointment_date <= $3"
	if where != want {
		t.Fatalf("where = %q", where)
	}
	if !reflect.DeepEqual(args, []any{"pending", "2025-03-01", "2025-03-31"}) {
		t.Fatalf("args = %v", args)
	}

	where, args = listWhere(model.ListFilter{From: "2025-03-01"}, "")
	if where != "" || len(args) != 0 {
		t.Fatalf("date filter without column: %q %v", where, args)
	}
}

func TestDateColumnsAreISO(t *testing.T) {
	if got := isoDate("date"); got != "to_char(date, 'YYYY-MM-DD')" {
		t.Fatalf("isoDate = %q", got)
	}
	for name, cols := range map[string]string{"overrides": overrideColumns, "appointments": appointmentColumns} {
		if strings.Contains(cols, "date::text") {
			t.Errorf("%s columns depend on DateStyle: %s", name, cols)
		}
		if !strings.Contains(cols, "'YYYY-MM-DD'") {
			t.Errorf("%s columns do not format the date: %s", name, cols)
		}
	}
}
