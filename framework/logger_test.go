package framework

import (
	"bytes"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func messages(output CapturedOutput) []string {
	var ret []string
	for _, m := range output {
		ret = append(ret, m.Message)
	}
	return ret
}

func TestCapturingLoggerRedirectsToChildren(t *testing.T) {
	var parent, child CapturingLogger
	parent.Printf("acquired token for worker %d", 1)

	parent.AddChildLogger(&child)
	parent.Println("shared", "setup")
	child.Printf("child only")
	parent.RemoveChildLogger(&child)
	parent.Printf("after")

	assert.Equal(t, []string{"acquired token for worker 1", "after"}, messages(parent.Output()))
	assert.Equal(t, []string{"acquired token for worker 1", "shared setup", "child only"}, messages(child.Output()))
	assert.Equal(t, 3, child.Len())
}

func TestCapturedOutputToString(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	output := CapturedOutput{
		{Time: at, Message: "GET api/tags"},
		{Time: at.Add(time.Millisecond), Message: "{\n  \"tags\": []\n}"},
	}
	assert.Equal(t,
		"  DEBUG [2024-05-01 09:30:00.000] GET api/tags\n  DEBUG [2024-05-01 09:30:00.001] {\n  \"tags\": []\n}",
		output.ToString("  DEBUG "))
	assert.Equal(t, "", CapturedOutput(nil).ToString("x"))
}

func TestLoggerWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggerWithPrefix(log.New(&buf, "", 0), "[harness] ")
	logger.Printf("status %d", 200)
	logger.Println("done")
	assert.Equal(t, "[harness] status 200\n[harness] done\n", buf.String())
}

func TestCapabilities(t *testing.T) {
	caps := Capabilities{"credentials"}
	assert.True(t, caps.Has("credentials"))
	assert.False(t, caps.Has("ui"))

	with := caps.With("ui")
	assert.True(t, with.Has("ui"))
	assert.False(t, caps.Has("ui"))
	assert.Equal(t, caps, caps.With("credentials"))
}
