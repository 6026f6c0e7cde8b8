package database

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDSN(t *testing.T) {
	got := DSN("app", "", "db", "3306", "scooters")
	want := "app@tcp(db:3306)/scooters?charset=utf8mb4&parseTime=true&loc=UTC"
	if got != want {
		t.Fatalf("got %q", got)
	}
	if got := DSN("app", "pw", "db", "3306", "scooters"); !strings.HasPrefix(got, "app:pw@tcp(") {
		t.Fatalf("password not included: %q", got)
	}
}

func TestStatements(t *testing.T) {
	stmts := Statements()
	if len(stmts) != 8 {
		t.Fatalf("got %d statements", len(stmts))
	}
	for _, s := range stmts {
		if !strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS") {
			t.Errorf("unexpected statement: %.40s", s)
		}
	}
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	for _, s := range Statements() {
		mock.ExpectExec(regexp.QuoteMeta(s)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
