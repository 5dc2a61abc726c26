package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"studycollab_backend/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingAt(id string, start time.Time) model.PendingSyncResult {
	return model.PendingSyncResult{
		Result: model.SessionResult{
			ID:      id,
			Session: model.Session{ID: "s-" + id, Mode: model.ModeTest, StartTime: start, Offline: true},
			Score:   50,
		},
		QueuedAt: start.Add(time.Minute),
	}
}

func TestResultRepository_CommitReconcile(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	pending := []model.PendingSyncResult{pendingAt("r1", start), pendingAt("r2", start.Add(time.Hour))}

	t.Run("Commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewResultRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `session_results` WHERE").
			WithArgs("u1", true, start.UnixMilli(), start.Add(time.Hour).UnixMilli()).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("INSERT INTO `session_results`").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM `pending_sync_results` WHERE").
			WithArgs("u1", "r1", "r2").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		require.NoError(t, repo.CommitReconcile(ctx, "u1", pending))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollbackOnInsertFailure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewResultRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `session_results` WHERE").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("INSERT INTO `session_results`").
			WillReturnError(errors.New("duplicate entry"))
		mock.ExpectRollback()

		err := repo.CommitReconcile(ctx, "u1", pending)
		assert.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NothingPending", func(t *testing.T) {
		db, mock := newMockDB(t)
		require.NoError(t, NewResultRepository(db).CommitReconcile(ctx, "u1", nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResultRepository_AppendOfflineResult(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResultRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `session_results`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `pending_sync_results`").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.AppendOfflineResult(context.Background(), "u1", pendingAt("r1", time.Now()))
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepository_ListPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewResultRepository(db)

	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	p := pendingAt("r1", start)
	payload, err := json.Marshal(p.Result)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "user_id", "started_at_ms", "payload", "queued_at"}).
		AddRow("r1", "u1", start.UnixMilli(), payload, p.QueuedAt)
	mock.ExpectQuery("SELECT \\* FROM `pending_sync_results` WHERE user_id = \\? ORDER BY queued_at asc").
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.ListPending(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].Result.ID)
	assert.True(t, got[0].Result.Offline())
	assert.True(t, got[0].Result.Session.StartTime.Equal(start))
	require.NoError(t, mock.ExpectationsWereMet())
}
