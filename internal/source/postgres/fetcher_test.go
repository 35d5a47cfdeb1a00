package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "postgresql+psycopg2://u:p@host:5432/db", want: "postgres://u:p@host:5432/db"},
		{raw: "postgresql://u@host/db?sslmode=disable", want: "postgres://u@host/db?sslmode=disable"},
		{raw: "postgres://u@host/db", want: "postgres://u@host/db"},
		{raw: "host=localhost dbname=shop", want: "host=localhost dbname=shop"},
		{raw: "mysql://u@host/db", wantErr: true},
		{raw: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeDSN(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetch_EmptyDSNFails(t *testing.T) {
	f := NewFetcher("", "SELECT * FROM orders")
	assert.Equal(t, "postgres", f.Name())
	_, err := f.Fetch(context.Background())
	require.Error(t, err)
}
