package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-agent/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T, maxLeads int) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock, maxLeads), mock
}

var selectColumns = []string{
	"name", "platform", "profile_url", "content", "location", "score",
	"contact_method", "status", "tags", "created_at", "last_contact",
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t, 0)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS leads`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load(t *testing.T) {
	s, mock := newMockPostgresStore(t, 0)
	contactedAt := baseTime.Add(time.Hour)

	rows := pgxmock.NewRows(selectColumns).
		AddRow("Sarah Johnson", "facebook", "https://facebook.com/sarah.johnson.fitness", "Just moved to Yokohama",
			"yokohama", 42, "facebook_message", "contacted", []byte(`["location_yokohama","urgent"]`), baseTime, &contactedAt).
		AddRow("ExpatLifter22", "reddit", "https://reddit.com/u/ExpatLifter22", "Anyone know a gym?",
			"japan", 18, "reddit_comment", "new", []byte(`[]`), baseTime, (*time.Time)(nil))

	mock.ExpectQuery(`SELECT name, platform, profile_url .* FROM leads ORDER BY seq`).WillReturnRows(rows)

	leads, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, model.PlatformFacebook, leads[0].Platform)
	assert.Equal(t, model.StatusContacted, leads[0].Status)
	assert.Equal(t, []string{"location_yokohama", "urgent"}, leads[0].Tags)
	require.NotNil(t, leads[0].LastContact)
	assert.True(t, contactedAt.Equal(*leads[0].LastContact))

	assert.Equal(t, model.StatusNew, leads[1].Status)
	assert.Equal(t, []string{}, leads[1].Tags)
	assert.Nil(t, leads[1].LastContact)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadQueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t, 0)

	mock.ExpectQuery(`FROM leads`).WillReturnError(errors.New("connection refused"))

	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: query leads")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save(t *testing.T) {
	s, mock := newMockPostgresStore(t, 2)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM leads`).WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCopyFrom(pgx.Identifier{"leads"}, leadColumns).WillReturnResult(2)
	mock.ExpectCommit()

	err := s.Save(context.Background(), []model.Lead{
		testLead("a", 1, baseTime),
		testLead("b", 1, baseTime),
		testLead("c", 1, baseTime),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveCopyFailureRollsBack(t *testing.T) {
	s, mock := newMockPostgresStore(t, 0)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM leads`).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"leads"}, leadColumns).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.Save(context.Background(), []model.Lead{testLead("a", 1, baseTime)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: copy leads")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBeginError(t *testing.T) {
	s, mock := newMockPostgresStore(t, 0)

	mock.ExpectBegin().WillReturnError(errors.New("db error"))

	err := s.Save(context.Background(), []model.Lead{testLead("a", 1, baseTime)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}
