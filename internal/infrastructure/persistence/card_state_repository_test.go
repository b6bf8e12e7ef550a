package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bloomdesk/backend/internal/domain/card"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockCardStateRepository creates a GormCardStateRepository with a mocked SQL connection
func newMockCardStateRepository(t *testing.T) (*GormCardStateRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCardStateRepository(gormDB), mock, mockDB
}

func cardRecordColumns() []string {
	return []string{
		"tenant_id", "card_id", "status", "notes", "assigned_to", "delivery_date",
		"created_at", "updated_at",
	}
}

func TestGormCardStateRepository_Upsert(t *testing.T) {
	t.Run("inserts card state with conflict handling", func(t *testing.T) {
		repo, mock, mockDB := newMockCardStateRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		state := card.State{
			Status:       card.StatusAssigned,
			Notes:        "ribbon, no lilies",
			AssignedTo:   "Maya",
			DeliveryDate: "2026-08-29",
		}

		mock.ExpectExec(`INSERT INTO "card_records"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		before := time.Now().UTC()
		updatedAt, err := repo.Upsert(context.Background(), tenantID, "12345-777-0", state)

		require.NoError(t, err)
		assert.False(t, updatedAt.Before(before))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates write errors", func(t *testing.T) {
		repo, mock, mockDB := newMockCardStateRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "card_records"`).
			WillReturnError(assert.AnError)

		_, err := repo.Upsert(context.Background(), uuid.New(), "12345-777-0", card.State{Status: card.StatusUnassigned})

		assert.Error(t, err)
	})
}

func TestGormCardStateRepository_ListChangedSince(t *testing.T) {
	t.Run("returns deltas newer than the cursor", func(t *testing.T) {
		repo, mock, mockDB := newMockCardStateRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		cursor := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
		t1 := cursor.Add(time.Minute)
		t2 := cursor.Add(2 * time.Minute)

		rows := sqlmock.NewRows(cardRecordColumns()).
			AddRow(tenantID, "12345-777-0", "assigned", "", "Maya", "2026-08-29", t1, t1).
			AddRow(tenantID, "12345-778-0", "completed", "extra fern", "PJ", "2026-08-29", t2, t2)

		mock.ExpectQuery(`SELECT \* FROM "card_records" WHERE tenant_id = \$1 AND updated_at > \$2 ORDER BY updated_at ASC`).
			WithArgs(tenantID, cursor).
			WillReturnRows(rows)

		deltas, err := repo.ListChangedSince(context.Background(), tenantID, cursor)

		require.NoError(t, err)
		require.Len(t, deltas, 2)
		assert.Equal(t, "12345-777-0", deltas[0].CardID)
		assert.Equal(t, card.StatusAssigned, deltas[0].State.Status)
		assert.Equal(t, "Maya", deltas[0].State.AssignedTo)
		assert.Equal(t, t2, deltas[1].UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty result when nothing changed", func(t *testing.T) {
		repo, mock, mockDB := newMockCardStateRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		cursor := time.Now().UTC()

		mock.ExpectQuery(`SELECT \* FROM "card_records" WHERE tenant_id = \$1 AND updated_at > \$2`).
			WithArgs(tenantID, cursor).
			WillReturnRows(sqlmock.NewRows(cardRecordColumns()))

		deltas, err := repo.ListChangedSince(context.Background(), tenantID, cursor)

		require.NoError(t, err)
		assert.Empty(t, deltas)
	})
}

func TestGormCardStateRepository_FindByCardIDs(t *testing.T) {
	t.Run("returns stored deltas for requested cards", func(t *testing.T) {
		repo, mock, mockDB := newMockCardStateRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		now := time.Now().UTC()

		rows := sqlmock.NewRows(cardRecordColumns()).
			AddRow(tenantID, "12345-777-0", "completed", "", "Sam", "2026-08-29", now, now)

		mock.ExpectQuery(`SELECT \* FROM "card_records" WHERE tenant_id = \$1 AND card_id IN \(\$2,\$3\)`).
			WithArgs(tenantID, "12345-777-0", "12345-778-0").
			WillReturnRows(rows)

		deltas, err := repo.FindByCardIDs(context.Background(), tenantID, []string{"12345-777-0", "12345-778-0"})

		require.NoError(t, err)
		require.Len(t, deltas, 1)
		assert.Equal(t, card.StatusCompleted, deltas[0].State.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips the query for an empty ID list", func(t *testing.T) {
		repo, mock, mockDB := newMockCardStateRepository(t)
		defer mockDB.Close()

		deltas, err := repo.FindByCardIDs(context.Background(), uuid.New(), nil)

		require.NoError(t, err)
		assert.Nil(t, deltas)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
