// Package dbtest 为各包测试提供迁移好的内存 sqlite
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/anoixa/mozaiek/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 每个测试一份独立的内存数据库
func Open(t testing.TB) database.Provider {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库在最后一个连接关闭时消失, 单连接也避免 sqlite 的表锁冲突
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	provider := database.NewProviderFromDB(db, "sqlite")
	require.NoError(t, database.Migrate(provider))

	t.Cleanup(func() {
		_ = provider.Close()
	})
	return provider
}
