package postgres

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
	"github.com/bryanwahyu/image-identifier/internal/domain/audit"
)

func TestEventRepository_SaveUsesNumberedPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewEventRepository(db)
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO analysis_events (.+) VALUES \(\$1,\$2,\$3,\$4,\$5, \$6,\$7,\$8,\$9,\$10,\$11\) ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("0b8f4a52-1111-4c4e-9d7e-7a4b6a0e0001", at, "invalid_output", "image/jpeg", 10, 0, 0, 0, "stub", int64(7), "invalid model output").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(context.Background(), &audit.Event{
		ID:         "0b8f4a52-1111-4c4e-9d7e-7a4b6a0e0001",
		MIMEType:   "image/jpeg",
		ImageBytes: 10,
		Outcome:    audit.OutcomeInvalidOutput,
		Message:    "invalid model output",
		Model:      "stub",
		DurationMS: 7,
		CreatedAt:  at,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Paginate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewEventRepository(db)
	at := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM analysis_events ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(5, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "created_at", "outcome", "mime_type", "image_bytes",
			"objects", "people", "scenes", "model", "duration_ms", "message",
		}).AddRow("evt-1", at, "success", "image/webp", 42, 1, 1, 1, "gpt-4o", 900, nil))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM analysis_events`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	res, err := repo.Paginate(context.Background(), 1, 5)

	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, analysis.LabelCounts{Objects: 1, People: 1, Scenes: 1}, res.Data[0].Counts)
	assert.Equal(t, "image/webp", res.Data[0].MIMEType)
	assert.Equal(t, 1, res.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS analysis_events`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_analysis_events_created_at`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
