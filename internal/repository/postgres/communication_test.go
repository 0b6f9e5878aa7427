package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ignite/crm-pipeline/internal/delivery"
	"github.com/ignite/crm-pipeline/internal/domain"
)

func setupCommMock(t *testing.T) (sqlmock.Sqlmock, *CommunicationRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewCommunicationRepo(db)
}

func TestRecordOutcomeSwapsFromQueued(t *testing.T) {
	mock, repo := setupCommMock(t)

	mock.ExpectExec("UPDATE communication_logs").
		WithArgs("log-1", string(domain.DeliverySent), sqlmock.AnyArg(), string(domain.DeliveryQueued)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	err := repo.RecordOutcome(context.Background(), "log-1", domain.DeliverySent, &now)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOutcomeAlreadyTerminal(t *testing.T) {
	mock, repo := setupCommMock(t)

	mock.ExpectExec("UPDATE communication_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM communication_logs").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("SENT"))

	err := repo.RecordOutcome(context.Background(), "log-1", domain.DeliveryFailed, nil)
	require.ErrorIs(t, err, delivery.ErrAlreadyRecorded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOutcomeMissingRow(t *testing.T) {
	mock, repo := setupCommMock(t)

	mock.ExpectExec("UPDATE communication_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM communication_logs").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := repo.RecordOutcome(context.Background(), "ghost", domain.DeliverySent, nil)
	require.ErrorIs(t, err, delivery.ErrLogNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignStatsExcludesMasterRow(t *testing.T) {
	mock, repo := setupCommMock(t)

	// The query counts only rows with a customer_id; the master row has
	// none and never shows up.
	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\)").
		WithArgs("camp-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("SENT", 9).
			AddRow("FAILED", 1))

	stats, err := repo.CampaignStats(context.Background(), "camp-1")
	require.NoError(t, err)
	require.Equal(t, delivery.Stats{Sent: 9, Failed: 1}, stats)
	require.NoError(t, mock.ExpectationsWereMet())
}
