package repository

import (
	"errors"
	"math"
	"regexp"
	"testing"

	"heatpump_monitor/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestBufferSQLite_SaveAll_ReplacesRowsInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewBufferSQLite(db)
	entries := []models.Snapshot{{ReadingTime: 10}, {ReadingTime: 20}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteBufferedSQL)).WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta(insertBufferedSQL)).
		WithArgs(0, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertBufferedSQL)).
		WithArgs(1, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO buffer_meta").
		WithArgs(bufferMetaRowID, true).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.SaveAll(testCtx(t), entries, true); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestBufferSQLite_SaveAll_RollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewBufferSQLite(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteBufferedSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(insertBufferedSQL)).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := repo.SaveAll(testCtx(t), []models.Snapshot{{}}, false); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestBufferSQLite_LoadAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewBufferSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectBufferMetaSQL)).WithArgs(bufferMetaRowID).
		WillReturnRows(sqlmock.NewRows([]string{"overflow"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(selectBufferedSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).
			AddRow(`{"reading_time":10}`).
			AddRow(`{"reading_time":20,"temp_inlet":{"value":null,"valid":false,"timestamp":20,"alert_level":"OK"}}`))

	got, overflow, err := repo.LoadAll(testCtx(t))
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if !overflow {
		t.Error("expected overflow flag")
	}
	if len(got) != 2 || got[0].ReadingTime != 10 || got[1].ReadingTime != 20 {
		t.Fatalf("unexpected entries: %+v", got)
	}
	if got[1].TempInlet.Valid || !math.IsNaN(got[1].TempInlet.Value) {
		t.Errorf("null value should decode as NaN, got %v", got[1].TempInlet.Value)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestBufferSQLite_LoadAll_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewBufferSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectBufferMetaSQL)).WithArgs(bufferMetaRowID).
		WillReturnRows(sqlmock.NewRows([]string{"overflow"}))
	mock.ExpectQuery(regexp.QuoteMeta(selectBufferedSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	got, overflow, err := repo.LoadAll(testCtx(t))
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if overflow || len(got) != 0 {
		t.Fatalf("expected empty buffer, got %d entries overflow=%v", len(got), overflow)
	}
}
