package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionRepository_ListTags(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT `tags` FROM `questions` WHERE").
		WithArgs("g1", "QUESTION").
		WillReturnRows(sqlmock.NewRows([]string{"tags"}).
			AddRow(`["maps","slices"]`).
			AddRow(nil).
			AddRow(`["maps","channels"]`))

	tags, err := NewQuestionRepository(db).ListTags(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"channels", "maps", "slices"}, tags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionRepository_ListTagsBadJSON(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT `tags` FROM `questions` WHERE").
		WillReturnRows(sqlmock.NewRows([]string{"tags"}).AddRow(`{"oops"`))

	_, err := NewQuestionRepository(db).ListTags(context.Background(), "g1")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
