package impl

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LEE00-KR/uglynos-v1-sub000/internal/repository/interfaces"
)

func TestBattleReportRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBattleReportRepository(db)
	ctx := context.Background()
	started := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	report := &interfaces.BattleReport{
		BattleID:     "b-1",
		StageID:      "meadow-1",
		ResultStatus: "victory",
		TurnCount:    3,
		Stars:        3,
		LootGold:     15,
		ExpGains:     json.RawMessage(`{"player-1":6}`),
		StartedAt:    started,
		EndedAt:      started.Add(time.Minute),
	}

	t.Run("写入战报", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO game_runtime.battle_reports").
			WithArgs(
				"b-1", sqlmock.AnyArg(), "victory", 3, 3, int64(15),
				nil, sqlmock.AnyArg(), nil, nil, nil,
				started, started.Add(time.Minute),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.Create(ctx, report))
	})

	t.Run("数据库错误", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO game_runtime.battle_reports").
			WillReturnError(errors.New("connection reset"))
		assert.Error(t, repo.Create(ctx, report))
	})

	t.Run("空战报", func(t *testing.T) {
		assert.Error(t, repo.Create(ctx, nil))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
