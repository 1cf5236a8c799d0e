package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	logger := newGormLogger(zerolog.New(&buf))
	query := func() (string, int64) { return `SELECT * FROM "global_grades" LIMIT 1`, 0 }

	logger.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	require.Zero(t, buf.Len())

	logger.Trace(context.Background(), time.Now(), query, errors.New("connection reset"))
	require.Contains(t, buf.String(), "connection reset")
	require.Contains(t, buf.String(), `"level":"warn"`)
}

func TestSQLiteLookupMissDoesNotLog(t *testing.T) {
	db, err := ConnectSQLite("file:gorm_logger_test?mode=memory&cache=shared")
	require.NoError(t, err)

	var buf bytes.Buffer
	db.Logger = newGormLogger(zerolog.New(&buf))
	require.NoError(t, Migrate(db))

	var missing struct{ ID string }
	err = db.Table("students").Where("id = ?", "absent").Take(&missing).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.Zero(t, buf.Len())
}
