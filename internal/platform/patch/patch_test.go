package patch

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	Title    Field[string] `json:"title"`
	VideoURL Field[string] `json:"videoUrl"`
	Duration Field[Int]    `json:"duration"`
	Price    Field[Float]  `json:"price"`
}

func TestFieldTriState(t *testing.T) {
	var b body
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Intro","videoUrl":null,"duration":"12"}`), &b))

	assert.True(t, b.Title.Present())
	assert.Equal(t, "Intro", b.Title.Value)

	assert.True(t, b.VideoURL.Cleared())
	assert.Nil(t, b.VideoURL.Ptr())

	assert.True(t, b.Duration.Present())
	assert.Equal(t, Int(12), b.Duration.Value)

	assert.False(t, b.Price.Set, "absent key stays unset")
}

func TestEmptyStringClears(t *testing.T) {
	var b body
	require.NoError(t, json.Unmarshal([]byte(`{"price":""}`), &b))
	assert.True(t, b.Price.Cleared())
}

func TestNumberParsing(t *testing.T) {
	var b body
	require.NoError(t, json.Unmarshal([]byte(`{"duration":30.0,"price":"19.5"}`), &b))
	assert.Equal(t, Int(30), b.Duration.Value)
	assert.Equal(t, Float(19.5), b.Price.Value)

	err := json.Unmarshal([]byte(`{"duration":"ten"}`), &b)
	var numErr *NumberError
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, "ten", numErr.Raw)

	err = json.Unmarshal([]byte(`{"duration":12.5}`), &b)
	require.Error(t, err)

	for _, raw := range []string{`1e20`, `-1e20`, `"9223372036854775808"`, `9223372036854775808`, `1e400`} {
		var f Field[Int]
		err := json.Unmarshal([]byte(raw), &f)
		require.True(t, errors.As(err, &numErr), raw)
		assert.Equal(t, "integer", numErr.Kind, raw)
	}

	var big Field[Int]
	require.NoError(t, json.Unmarshal([]byte(`"9223372036854775807"`), &big))
	assert.Equal(t, Int(math.MaxInt), big.Value)
	require.NoError(t, json.Unmarshal([]byte(`-4e3`), &big))
	assert.Equal(t, Int(-4000), big.Value)
}
