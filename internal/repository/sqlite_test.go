package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/you/bixi-explorer/internal/trips"
)

func sampleRecords() []trips.Record {
	start := time.Date(2017, 4, 15, 0, 0, 0, 0, time.UTC)
	return []trips.Record{
		{StartStationCode: 7060, EndStationCode: 7060, StartDate: start, EndDate: start.Add(31 * time.Minute), DurationSec: 1841, IsMember: true},
		{StartStationCode: 6173, EndStationCode: 6100, StartDate: start.Add(time.Minute), EndDate: start.Add(10 * time.Minute), DurationSec: 553},
	}
}

func TestReplaceSource_Mock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	store := NewSQLiteTripStore(db)
	records := sampleRecords()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM trips").WithArgs("OD_2017-04.csv").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM import_batches").WithArgs("OD_2017-04.csv").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO import_batches").
		WithArgs(sqlmock.AnyArg(), "OD_2017-04.csv", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep := mock.ExpectPrepare("INSERT INTO trips")
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), 7060, 7060, "2017-04-15 00:00:00", "2017-04-15 00:31:00", 1841, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), 6173, 6100, "2017-04-15 00:01:00", "2017-04-15 00:10:00", 553, 0).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	batchID, err := store.ReplaceSource(context.Background(), "OD_2017-04.csv", records)
	if err != nil {
		t.Fatalf("ReplaceSource failed: %v", err)
	}
	if batchID == "" {
		t.Error("expected a batch ID")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceSource_RollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM trips").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM import_batches").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO import_batches").WillReturnResult(sqlmock.NewResult(1, 1))
	prep := mock.ExpectPrepare("INSERT INTO trips")
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err = NewSQLiteTripStore(db).ReplaceSource(context.Background(), "OD_2017-05.csv", sampleRecords())
	if err == nil {
		t.Fatal("expected insert error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadAll_Mock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	columns := []string{"start_station_code", "end_station_code", "start_date", "end_date", "duration_sec", "is_member"}
	mock.ExpectQuery("FROM trips").WillReturnRows(
		sqlmock.NewRows(columns).
			AddRow(7060, 7060, "2017-04-15 00:00:00", "2017-04-15 00:31:00", 1841, 1).
			AddRow(6173, 6100, "2017-04-15 00:01", "2017-04-15 00:10", 553, 0),
	)

	records, err := NewSQLiteTripStore(db).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].IsMember || records[1].IsMember {
		t.Errorf("membership flags not decoded: %+v", records)
	}
	if records[1].EndDate.Minute() != 10 {
		t.Errorf("unexpected end date %v", records[1].EndDate)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadAll_BadTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	columns := []string{"start_station_code", "end_station_code", "start_date", "end_date", "duration_sec", "is_member"}
	mock.ExpectQuery("FROM trips").WillReturnRows(
		sqlmock.NewRows(columns).AddRow(1, 2, "garbage", "2017-04-15 00:31:00", 10, 0),
	)

	if _, err := NewSQLiteTripStore(db).LoadAll(context.Background()); err == nil {
		t.Fatal("expected timestamp error")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "trips.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	records := sampleRecords()
	if _, err := store.ReplaceSource(ctx, "OD_2017-04.csv", records); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	// Re-importing the same file replaces its rows
	if _, err := store.ReplaceSource(ctx, "OD_2017-04.csv", records); err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	loaded, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(loaded) != len(records) {
		t.Fatalf("expected %d rows after re-import, got %d", len(records), len(loaded))
	}
	for i, want := range records {
		got := loaded[i]
		if got.StartStationCode != want.StartStationCode || got.EndStationCode != want.EndStationCode ||
			got.DurationSec != want.DurationSec || got.IsMember != want.IsMember ||
			!got.StartDate.Equal(want.StartDate) || !got.EndDate.Equal(want.EndDate) {
			t.Errorf("row %d = %+v, want %+v", i, got, want)
		}
	}
}
