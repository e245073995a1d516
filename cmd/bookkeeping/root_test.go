package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTrialBalanceOnEmptyStore(t *testing.T) {
	out, err := execute(t, "report", "trial-balance", "--as-of", "2024-03-31")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Empty(t, rows)
}

func TestIncomeStatementOnEmptyStore(t *testing.T) {
	out, err := execute(t, "report", "income-statement", "--from", "2024-03-01", "--to", "2024-03-31")
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "0", report["netProfit"])
	assert.EqualValues(t, 0, report["linesScanned"])
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad date", []string{"report", "income-statement", "--from", "03/01/2024", "--to", "2024-03-31"}},
		{"missing partner", []string{"open-items"}},
		{"clear without lines", []string{"clear"}},
		{"unknown entry", []string{"entry", "show", "--id", "missing"}},
		{"migrate on memory", []string{"migrate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("from", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDate("from", "2023-02-29")
	assert.ErrorContains(t, err, "--from")
}

func TestOptional(t *testing.T) {
	assert.Nil(t, optional(""))
	require.NotNil(t, optional("CC-1"))
	assert.Equal(t, "CC-1", *optional("CC-1"))
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	out, err := execute(t, "token", "--subject", "alice", "--ttl", "5m")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(out), claims, func(*jwt.Token) (interface{}, error) {
		return []byte("cli-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "bookkeeping-core", claims.Issuer)
}

func TestServeAndTokenRequireSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := execute(t, "token")
	assert.Error(t, err)

	_, err = execute(t, "serve")
	assert.ErrorContains(t, err, "JWT_SECRET")
}
