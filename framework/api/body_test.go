package api

import (
	"net/http"
	"testing"

	"github.com/conduit-qa/conduit-test-harness/framework"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBody(t *testing.T) {
	t.Run("JSON", func(t *testing.T) {
		b := ParseBody(200, []byte(`{"tags":["Test","Git"]}`), nil)
		assert.True(t, b.IsJSON())
		assert.False(t, b.IsEmpty())
		assert.Equal(t, "Test", b.Get("tags").GetByIndex(0).StringValue())
	})

	t.Run("empty payload", func(t *testing.T) {
		assert.True(t, ParseBody(200, nil, nil).IsEmpty())
		assert.True(t, ParseBody(200, []byte("  \n"), nil).IsEmpty())
	})

	t.Run("204 is empty regardless of payload", func(t *testing.T) {
		assert.True(t, ParseBody(204, []byte(`{"x":1}`), nil).IsEmpty())
	})

	t.Run("non-JSON falls back to text and logs the parse error", func(t *testing.T) {
		var debug framework.CapturingLogger
		b := ParseBody(502, []byte("<html>Bad Gateway</html>"), &debug)
		assert.False(t, b.IsJSON())
		assert.Equal(t, "<html>Bad Gateway</html>", b.Text())
		assert.Equal(t, ldvalue.Null(), b.Value())
		require.Equal(t, 1, debug.Len())
		assert.Contains(t, debug.Output()[0].Message, "not valid JSON")
	})
}

func TestBodyPath(t *testing.T) {
	b := ParseBody(200, []byte(`{"articles":[{"slug":"a"},{"slug":"b"}],"articlesCount":2}`), nil)
	slugs, err := b.Path("$.articles[*].slug")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, slugs)

	_, err = b.Path("$.articles[")
	assert.Error(t, err)
}

func TestBodyDecode(t *testing.T) {
	var out struct {
		ArticlesCount int `json:"articlesCount"`
	}
	b := ParseBody(200, []byte(`{"articles":[],"articlesCount":7}`), nil)
	require.NoError(t, b.Decode(&out))
	assert.Equal(t, 7, out.ArticlesCount)
}

func TestBodyJSONString(t *testing.T) {
	assert.Equal(t, "null", Body{}.JSONString())
	assert.Equal(t, `"oops"`, TextBody("oops").JSONString())
	assert.Equal(t, `{"a":1}`, JSONBody(ldvalue.ObjectBuild().Set("a", ldvalue.Int(1)).Build()).JSONString())
}

func TestResponseBody(t *testing.T) {
	jsonHeader := http.Header{"Content-Type": {"application/json; charset=utf-8"}}

	t.Run("JSON content type is parsed", func(t *testing.T) {
		b := ResponseBody(&Response{StatusCode: 200, Header: jsonHeader, Body: []byte(`{"a":1}`)}, nil)
		assert.True(t, b.IsJSON())
		assert.Equal(t, 1, b.Get("a").IntValue())
	})

	t.Run("malformed JSON with JSON content type is kept as text", func(t *testing.T) {
		b := ResponseBody(&Response{StatusCode: 200, Header: jsonHeader, Body: []byte(`{"a":`)}, nil)
		assert.False(t, b.IsJSON())
		assert.Equal(t, `{"a":`, b.Text())
	})

	t.Run("non-JSON content type is not parsed", func(t *testing.T) {
		header := http.Header{"Content-Type": {"text/plain"}}
		b := ResponseBody(&Response{StatusCode: 200, Header: header, Body: []byte(`{"a":1}`)}, nil)
		assert.False(t, b.IsJSON())
		assert.Equal(t, `{"a":1}`, b.Text())
	})

	t.Run("trailing data after a JSON value is kept as text", func(t *testing.T) {
		for _, data := range []string{`{"a":1} trailing`, `{"a":1}{"b":2}`, `[1,2]]`} {
			b := ResponseBody(&Response{StatusCode: 200, Header: jsonHeader, Body: []byte(data)}, nil)
			assert.False(t, b.IsJSON(), data)
			assert.Equal(t, data, b.Text())
		}
	})

	t.Run("trailing whitespace is allowed", func(t *testing.T) {
		b := ResponseBody(&Response{StatusCode: 200, Header: jsonHeader, Body: []byte("{\"a\":1}\n")}, nil)
		assert.True(t, b.IsJSON())
	})

	t.Run("missing content type is not parsed", func(t *testing.T) {
		b := ResponseBody(&Response{StatusCode: 200, Body: []byte(`42`)}, nil)
		assert.False(t, b.IsJSON())
		assert.Equal(t, "42", b.Text())
		assert.True(t, ResponseBody(&Response{StatusCode: 200}, nil).IsEmpty())
	})

	t.Run("204 with JSON content type is empty", func(t *testing.T) {
		assert.True(t, ResponseBody(&Response{StatusCode: 204, Header: jsonHeader}, nil).IsEmpty())
	})

	t.Run("problem+json counts as JSON", func(t *testing.T) {
		header := http.Header{"Content-Type": {"application/problem+json"}}
		b := ResponseBody(&Response{StatusCode: 400, Header: header, Body: []byte(`{"title":"x"}`)}, nil)
		assert.True(t, b.IsJSON())
	})
}
