package db

import (
	"fmt"
	"testing"

	"promptionary/internal/config"
	"promptionary/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	cases := []struct {
		driver string
		name   string
	}{
		{"", "mysql"},
		{DriverMySQL, "mysql"},
		{DriverPostgres, "postgres"},
	}
	for _, tc := range cases {
		t.Run(tc.name+"/"+tc.driver, func(t *testing.T) {
			d, err := Dialector(&config.Config{DBDriver: tc.driver, DBHost: "127.0.0.1", DBName: "promptionary"})
			require.NoError(t, err)
			assert.Equal(t, tc.name, d.Name())
		})
	}

	_, err := Dialector(&config.Config{DBDriver: "sqlite"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenStore_Memory(t *testing.T) {
	st, closeFn, err := OpenStore(&config.Config{DBDriver: DriverMemory})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &store.Memory{}, st)
}

func TestModels_IncludeJoinTable(t *testing.T) {
	var names []string
	for _, m := range Models() {
		names = append(names, fmt.Sprintf("%T", m))
	}
	assert.Equal(t, []string{
		"*domain.Account", "*domain.Category", "*domain.Entry",
		"*domain.EntryCategory", "*domain.Translation", "*domain.Transaction",
	}, names)
}

func TestTableOptions(t *testing.T) {
	assert.Contains(t, tableOptions(DriverMySQL), "COLLATE=utf8mb4_bin")
	assert.Empty(t, tableOptions(DriverPostgres))
}

func TestWithTableOptions_MySQL(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	conn, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	opts, ok := withTableOptions(conn).Get("gorm:table_options")
	require.True(t, ok)
	assert.Equal(t, mysqlTableOptions, opts)
}
