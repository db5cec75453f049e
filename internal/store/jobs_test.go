package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqbui/faceswap-be/internal/domain"
)

func TestStore_CreateJob_Duplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO jobs")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := s.CreateJob(context.Background(), &domain.Job{
		RequestID: "req-1",
		OwnerID:   "user-1",
		Kind:      domain.KindImage,
		Status:    domain.JobStatusProcessing,
	})
	require.ErrorIs(t, err, domain.ErrJobAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_TransitionJob(t *testing.T) {
	tests := []struct {
		name         string
		rowsAffected int64
		wantWon      bool
	}{
		{
			name:         "wins the transition",
			rowsAffected: 1,
			wantWon:      true,
		},
		{
			name:         "loses to an earlier terminal transition",
			rowsAffected: 0,
			wantWon:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)

			mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs")).
				WithArgs("req-1", "completed", "https://cdn.example/out.png", "", "", "processing").
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))

			won, err := s.TransitionJob(context.Background(), "req-1", domain.JobStatusCompleted, "https://cdn.example/out.png", "", "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantWon, won)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_TransitionJob_RejectsNonTerminalTarget(t *testing.T) {
	s, mock := newMockStore(t)

	won, err := s.TransitionJob(context.Background(), "req-1", domain.JobStatusProcessing, "", "", "")
	require.Error(t, err)
	assert.False(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}
