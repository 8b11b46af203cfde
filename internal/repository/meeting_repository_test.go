package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*MeetingRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	return NewMeetingRepository(db), mock
}

func TestMeetingRepository_CreateMeetingDuplicateRoomCode(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "meetings"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.CreateMeeting(context.Background(), newMeeting("m-1", "abc-def-123"))
	assert.ErrorIs(t, err, ErrRoomCodeTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepository_ActivateMeeting(t *testing.T) {
	tcases := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "scheduled meeting is activated", affected: 1, want: true},
		{name: "meeting already past scheduled", affected: 0, want: false},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)

			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE "meetings" SET .* WHERE \(?id = \$\d+ AND status = \$\d+`).
				WithArgs(sqlmock.AnyArg(), "ACTIVE", sqlmock.AnyArg(), "m-1", "SCHEDULED").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectCommit()

			activated, err := repo.ActivateMeeting(context.Background(), "m-1", time.Now())
			require.NoError(t, err)
			assert.Equal(t, tc.want, activated)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMeetingRepository_EndMeeting(t *testing.T) {
	startedAt := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	endedAt := startedAt.Add(90*time.Second + 400*time.Millisecond)

	t.Run("active meeting is ended with its duration", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "meetings" WHERE .*status = \$\d+.* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "started_at"}).
				AddRow("m-1", "ACTIVE", startedAt))
		mock.ExpectExec(`UPDATE "meetings" SET .* WHERE \(?id = \$\d+ AND status = \$\d+`).
			WithArgs(int64(90), sqlmock.AnyArg(), "ENDED", sqlmock.AnyArg(), "m-1", "ACTIVE").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ended, err := repo.EndMeeting(context.Background(), "m-1", endedAt)
		require.NoError(t, err)
		assert.True(t, ended)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("meeting not active is left untouched", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "meetings" WHERE .*status = \$\d+.* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "started_at"}))
		mock.ExpectCommit()

		ended, err := repo.EndMeeting(context.Background(), "m-1", endedAt)
		require.NoError(t, err)
		assert.False(t, ended)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock failure rolls back", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "meetings"`).WillReturnError(sql.ErrConnDone)
		mock.ExpectRollback()

		ended, err := repo.EndMeeting(context.Background(), "m-1", endedAt)
		assert.Error(t, err)
		assert.False(t, ended)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMeetingRepository_MarkParticipantLeft(t *testing.T) {
	tcases := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "first leave is stamped", affected: 1, want: true},
		{name: "already left", affected: 0, want: false},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			leftAt := time.Date(2024, 5, 6, 9, 5, 0, 0, time.UTC)

			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE "participants" SET "left_at"=\$1 WHERE \(?id = \$2 AND meeting_id = \$3 AND left_at IS NULL`).
				WithArgs(leftAt, "p-1", "m-1").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectCommit()

			marked, err := repo.MarkParticipantLeft(context.Background(), "m-1", "p-1", leftAt)
			require.NoError(t, err)
			assert.Equal(t, tc.want, marked)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
