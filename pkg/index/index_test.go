package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smith-xyz/golang-callgraph-generator/pkg/models"
)

func newInstance(name string, typeArgs ...string) *models.Instance {
	path := StripTypeArgs(name)
	return &models.Instance{
		ID:       Identity(path, typeArgs),
		Name:     name,
		Path:     path,
		TypeArgs: typeArgs,
	}
}

func TestStripTypeArgs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no generics", "example.com/shop.report", "example.com/shop.report"},
		{"method on generic type", "example.com/shop.DataStore[example.com/shop.Electronics].TotalValue", "example.com/shop.DataStore.TotalValue"},
		{"generic function", "example.com/shop.Sum[int]", "example.com/shop.Sum"},
		{"nested brackets", "example.com/shop.Map[[]int,map[string]int]", "example.com/shop.Map"},
		{"closure of instance", "example.com/shop.Sum[int]$1", "example.com/shop.Sum$1"},
		{"stray closing bracket", "weird]name", "weird]name"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripTypeArgs(tt.input))
		})
	}
}

func TestMatches(t *testing.T) {
	electronics := "example.com/shop.DataStore[example.com/shop.Electronics].TotalValue"
	clothing := "example.com/shop.DataStore[example.com/shop.Clothing].TotalValue"

	tests := []struct {
		name      string
		query     string
		candidate string
		expected  bool
	}{
		{"broad query matches electronics", "DataStore.TotalValue", electronics, true},
		{"broad query matches clothing", "DataStore.TotalValue", clothing, true},
		{"precise query matches its instantiation", "DataStore[example.com/shop.Electronics].TotalValue", electronics, true},
		{"precise query rejects other instantiation", "DataStore[example.com/shop.Electronics].TotalValue", clothing, false},
		{"bracket query against base path", "shop.DataStore[", electronics, true},
		{"unrelated", "Inventory.Count", electronics, false},
		{"empty query never matches", "", electronics, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Matches(tt.query, tt.candidate))
		})
	}
}

func TestIdentityIsStable(t *testing.T) {
	a := Identity("example.com/shop.Sum", []string{"int"})
	b := Identity("example.com/shop.Sum", []string{"int"})
	c := Identity("example.com/shop.Sum", []string{"float64"})
	d := Identity("example.com/shop.Sum", nil)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Len(t, a.String(), 32)
}

func TestParseID(t *testing.T) {
	id := Identity("example.com/shop.report", nil)

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	upper, err := ParseID("0X" + toUpper(id.String()))
	require.NoError(t, err)
	assert.Equal(t, id, upper)

	_, err = ParseID("1234")
	assert.Error(t, err)

	_, err = ParseID("zz000000000000000000000000000000")
	assert.Error(t, err)
}

func toUpper(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'f' {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

func TestIndexMatchAndLookup(t *testing.T) {
	x := New()
	electronics := newInstance("example.com/shop.DataStore[example.com/shop.Electronics].TotalValue", "example.com/shop.Electronics")
	clothing := newInstance("example.com/shop.DataStore[example.com/shop.Clothing].TotalValue", "example.com/shop.Clothing")
	report := newInstance("example.com/shop.report")

	for _, inst := range []*models.Instance{electronics, clothing, report} {
		_, added := x.Register(inst)
		require.True(t, added)
	}

	_, added := x.Register(newInstance("example.com/shop.report"))
	assert.False(t, added, "same definition and type arguments must map to the registered instance")
	assert.Equal(t, 3, x.Len())

	broad := x.Match("DataStore.TotalValue")
	require.Len(t, broad, 2)
	assert.Equal(t, clothing.ID, broad[0].ID, "results are sorted by display name")
	assert.Equal(t, electronics.ID, broad[1].ID)

	precise := x.Match("DataStore[example.com/shop.Electronics].TotalValue")
	require.Len(t, precise, 1)
	assert.Equal(t, electronics.ID, precise[0].ID)

	assert.Empty(t, x.Match("Inventory.Count"))

	found, ok := x.Lookup(report.ID.String())
	require.True(t, ok)
	assert.Equal(t, report, found)

	_, ok = x.Lookup("not-a-hash")
	assert.False(t, ok)

	assert.Len(t, x.byPath["example.com/shop.DataStore.TotalValue"], 2)
}

func TestIndexRemove(t *testing.T) {
	x := New()
	a := newInstance("example.com/shop.Sum[int]", "int")
	b := newInstance("example.com/shop.Sum[float64]", "float64")
	x.Register(a)
	x.Register(b)

	x.Remove(a.ID)
	assert.False(t, x.Contains(a.ID))
	assert.True(t, x.Contains(b.ID))
	assert.Equal(t, []models.ID{b.ID}, x.byPath["example.com/shop.Sum"])
	assert.Len(t, x.Match("shop.Sum"), 1)

	x.Remove(b.ID)
	assert.NotContains(t, x.byPath, "example.com/shop.Sum")
	assert.Empty(t, x.Match("shop.Sum"))
	assert.Equal(t, 0, x.Len())

	// removing an unknown identity is a no-op
	x.Remove(a.ID)
}
