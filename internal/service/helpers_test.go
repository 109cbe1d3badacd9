package service

import (
	"testing"

	"github.com/jjikmuck/jjikmuck/backend/config"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"
)

func testTables(t *testing.T) *config.Tables {
	t.Helper()
	tables, err := config.DefaultTables()
	require.NoError(t, err)
	return tables
}

func f(v float64) *float64 {
	return &v
}

func emptyVector() pgvector.Vector {
	return pgvector.NewVector(nil)
}
