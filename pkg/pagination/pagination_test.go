package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageClampsBounds(t *testing.T) {
	cases := []struct {
		name            string
		number, perPage int
		wantNum, wantPP int
	}{
		{"defaults", 0, 0, 1, DefaultPerPage},
		{"negative page", -3, 25, 1, 25},
		{"over cap", 2, 1000, 2, MaxPerPage},
		{"in range", 4, 10, 4, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPage(tc.number, tc.perPage)
			assert.Equal(t, tc.wantNum, p.Number)
			assert.Equal(t, tc.wantPP, p.PerPage)
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, NewPage(1, 20).Offset())
	assert.Equal(t, 40, NewPage(3, 20).Offset())
	assert.Equal(t, 20, NewPage(3, 20).Limit())
}

func TestParseSortWhitelist(t *testing.T) {
	allowed := map[string]string{
		"created_at": "created_at",
		"kind":       "kind",
	}

	sorts := ParseSort("-created_at,kind", allowed)
	assert.Equal(t, []Sort{
		{Column: "created_at", Order: Desc},
		{Column: "kind", Order: Asc},
	}, sorts)

	// Unknown fields are dropped, not passed to SQL.
	assert.Empty(t, ParseSort("password;drop table users", allowed))
	assert.Empty(t, ParseSort("", allowed))
}
