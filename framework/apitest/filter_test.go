package apitest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filters(t *testing.T, run, skip []string) RegexFilters {
	var r RegexFilters
	for _, s := range run {
		require.NoError(t, r.MustMatch.Set(s))
	}
	for _, s := range skip {
		require.NoError(t, r.MustNotMatch.Set(s))
	}
	return r
}

func TestRegexFilters(t *testing.T) {
	login := TestID{"users", "login", "happy path"}
	blankEmail := TestID{"users", "login", "negative", "blank email"}
	tags := TestID{"tags", "GET tags"}

	t.Run("no patterns", func(t *testing.T) {
		r := filters(t, nil, nil)
		assert.False(t, r.IsDefined())
		for _, id := range []TestID{nil, tags, login} {
			assert.True(t, r.Match(id), id)
		}
	})

	t.Run("run selects matching tests and their parents", func(t *testing.T) {
		r := filters(t, []string{"users/login/negative"}, nil)
		assert.True(t, r.Match(nil))
		assert.True(t, r.Match(TestID{"users"}))
		assert.True(t, r.Match(TestID{"users", "login"}))
		assert.True(t, r.Match(blankEmail))
		assert.False(t, r.Match(login))
		assert.False(t, r.Match(tags))
	})

	t.Run("patterns are unanchored regexes per component", func(t *testing.T) {
		r := filters(t, []string{"^tag"}, nil)
		assert.True(t, r.Match(tags))
		assert.False(t, r.Match(login))

		r = filters(t, []string{"user/log"}, nil)
		assert.True(t, r.Match(login))
	})

	t.Run("any run pattern may match", func(t *testing.T) {
		r := filters(t, []string{"tags", "users/login/happy"}, nil)
		assert.True(t, r.Match(tags))
		assert.True(t, r.Match(login))
		assert.False(t, r.Match(blankEmail))
	})

	t.Run("skip applies to a test and its subtests but not its parents", func(t *testing.T) {
		r := filters(t, nil, []string{"users/login"})
		assert.True(t, r.Match(TestID{"users"}))
		assert.False(t, r.Match(TestID{"users", "login"}))
		assert.False(t, r.Match(login))
		assert.True(t, r.Match(tags))
	})

	t.Run("skip overrides run", func(t *testing.T) {
		r := filters(t, []string{"users"}, []string{"users/login/negative"})
		assert.True(t, r.Match(login))
		assert.False(t, r.Match(blankEmail))
	})
}

func TestParseTestIDPatternRejectsBadRegex(t *testing.T) {
	var l TestIDPatternList
	assert.Error(t, l.Set("users/("))
	assert.False(t, l.IsDefined())
}

func TestPatternListString(t *testing.T) {
	r := filters(t, []string{"tags", "users/login"}, nil)
	assert.Equal(t, `"tags" or "users/login"`, r.MustMatch.String())
	assert.Equal(t, "pattern", r.MustMatch.Type())
}

func TestPrintFilterDescription(t *testing.T) {
	var out bytes.Buffer
	PrintFilterDescription(&out, filters(t, []string{"tags"}, []string{"ui"}), []string{"credentials", "ui"}, []string{"credentials"})

	text := out.String()
	assert.Contains(t, text, `skip any not matching "tags"`)
	assert.Contains(t, text, `skip any matching "ui"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "ui"), text)

	out.Reset()
	PrintFilterDescription(&out, RegexFilters{}, []string{"credentials"}, []string{"credentials"})
	assert.Empty(t, out.String())
}
