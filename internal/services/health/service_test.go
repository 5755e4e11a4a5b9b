package health

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestStatusWithoutDependencies(t *testing.T) {
	r := NewService(nil, nil).Status(context.Background())
	if !r.OK || r.Database != "disabled" || r.Redis != "disabled" {
		t.Fatalf("unexpected report: %+v", r)
	}
}

func TestStatusPingsDependencies(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectPing()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := NewService(db, rdb).Status(context.Background())
	if !r.OK || r.Database != "ok" || r.Redis != "ok" {
		t.Fatalf("unexpected report: %+v", r)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestStatusReportsFailures(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	r := NewService(db, rdb).Status(context.Background())
	if r.OK {
		t.Fatalf("expected not ok")
	}
	if r.Database != "unavailable" || r.Redis != "unavailable" {
		t.Fatalf("unexpected report: %+v", r)
	}
}
