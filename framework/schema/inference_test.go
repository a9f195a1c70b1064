package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestInferSchemaObject(t *testing.T) {
	schema := InferSchema(parse(t, `{"tags":["a","b"],"count":2,"ratio":0.5,"ok":true,"bio":null}`))

	assert.Equal(t, MetaSchema, schema["$schema"])
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"bio", "count", "ok", "ratio", "tags"}, schema["required"])

	props := schema["properties"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}}, props["tags"])
	assert.Equal(t, map[string]interface{}{"type": "integer"}, props["count"])
	assert.Equal(t, map[string]interface{}{"type": "number"}, props["ratio"])
	assert.Equal(t, map[string]interface{}{"type": "boolean"}, props["ok"])
	assert.Equal(t, map[string]interface{}{"type": "null"}, props["bio"])
}

func TestInferSchemaMergesArrayItems(t *testing.T) {
	schema := InferSchema(parse(t, `[{"slug":"a","body":"x","n":1},{"slug":"b","n":1.5},{"slug":null,"n":2}]`))

	items := schema["items"].(map[string]interface{})
	assert.Equal(t, []string{"n", "slug"}, items["required"])
	props := items["properties"].(map[string]interface{})
	assert.Equal(t, []string{"null", "string"}, props["slug"].(map[string]interface{})["type"])
	assert.Equal(t, "number", props["n"].(map[string]interface{})["type"])
	assert.Equal(t, "string", props["body"].(map[string]interface{})["type"])
}

func TestInferSchemaEmptyArray(t *testing.T) {
	schema := InferSchema(parse(t, `{"articles":[]}`))
	props := schema["properties"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"type": "array", "items": map[string]interface{}{}}, props["articles"])
}
