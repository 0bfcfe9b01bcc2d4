// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgx5DSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@db:5432/portal", "pgx5://u:p@db:5432/portal"},
		{"postgresql://db/portal?sslmode=disable", "pgx5://db/portal?sslmode=disable"},
		{"pgx5://db/portal", "pgx5://db/portal"},
		{"host=db dbname=portal", "host=db dbname=portal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, pgx5DSN(tt.in))
	}
}
