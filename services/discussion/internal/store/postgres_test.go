package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapErr(t *testing.T) {
	other := errors.New("network")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, ErrNotFound},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, ErrNotFound},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErr(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestClampPage(t *testing.T) {
	l, o := clampPage(0, -3)
	assert.Equal(t, 50, l)
	assert.Equal(t, 0, o)
	l, _ = clampPage(500, 0)
	assert.Equal(t, 50, l)
	l, o = clampPage(20, 40)
	assert.Equal(t, 20, l)
	assert.Equal(t, 40, o)
}
