package rowtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	for _, s := range []string{"full", "incremental", "overwrite", "clone"} {
		t.Run(s, func(t *testing.T) {
			p, err := ParsePolicy(s)
			require.NoError(t, err)
			assert.Equal(t, Policy(s), p)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParsePolicy("mirror")
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParsePolicy("")
		assert.Error(t, err)
	})
}
