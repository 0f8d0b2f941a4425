package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"assettrack/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Category{}))
	return db
}

func TestAfterCommitRunsAfterOutermostCommit(t *testing.T) {
	db := setupTxTestDB(t)
	tm := NewTransactionManager(db)

	var order []string
	err := tm.RunInTx(context.Background(), func(txCtx context.Context) error {
		AfterCommit(txCtx, func() { order = append(order, "outer") })

		// A joined inner scope registers against the same outermost commit.
		innerErr := tm.RunInTx(txCtx, func(joinedCtx context.Context) error {
			AfterCommit(joinedCtx, func() { order = append(order, "inner") })
			return nil
		})
		require.NoError(t, innerErr)

		assert.Empty(t, order, "hooks must not fire before commit")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestAfterCommitDroppedOnRollback(t *testing.T) {
	db := setupTxTestDB(t)
	tm := NewTransactionManager(db)

	fired := false
	err := tm.RunInTx(context.Background(), func(txCtx context.Context) error {
		AfterCommit(txCtx, func() { fired = true })
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.False(t, fired)
}

func TestAfterCommitOutsideTransactionRunsImmediately(t *testing.T) {
	fired := false
	AfterCommit(context.Background(), func() { fired = true })
	assert.True(t, fired)
}

// A failed statement inside a savepoint must not take the enclosing
// transaction down with it.
func TestRunInSavepointKeepsOuterTransactionUsable(t *testing.T) {
	db := setupTxTestDB(t)
	tm := NewTransactionManager(db)
	categories := NewCategoryRepository(db)
	ctx := context.Background()

	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := categories.Create(txCtx, &model.Category{Name: "Laptops", Code: "LT"}); err != nil {
			return err
		}

		spErr := tm.RunInSavepoint(txCtx, func(spCtx context.Context) error {
			return categories.Create(spCtx, &model.Category{Name: "Duplicate", Code: "LT"})
		})
		require.Error(t, spErr)
		assert.True(t, errors.Is(spErr, gorm.ErrDuplicatedKey))

		// The outer transaction survived the rolled-back attempt.
		return categories.Create(txCtx, &model.Category{Name: "Monitors", Code: "MN"})
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Category{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
