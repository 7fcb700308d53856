package courts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	c, ok := d.Lookup("B000210")
	require.True(t, ok)
	assert.Equal(t, "서울중앙지방법원", c.Name)
	assert.False(t, d.Known("X999999"))

	all := d.All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Code, all[i].Code)
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte(`
courts:
  - code: A1
    name: one
  - code: A1
    name: two
`))
	assert.Error(t, err)
}

func TestParseRejectsMissingCode(t *testing.T) {
	_, err := Parse([]byte(`
courts:
  - name: nameless
`))
	assert.Error(t, err)
}
