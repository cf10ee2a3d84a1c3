package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainOutput(t *testing.T) {
	u := NewWithWriter(&bytes.Buffer{})

	assert.Equal(t, "=== txreplay ===", u.Header("txreplay"))
	assert.Equal(t, "Input:       resources", u.KeyValue("Input", "resources"))
	assert.Equal(t, "[OK] done", u.Success("done"))
	assert.Equal(t, "[FAILED] boom", u.Error("boom"))
	assert.Equal(t, "[WARN] careful", u.Warning("careful"))
	assert.Equal(t, "quiet", u.Muted("quiet"))
}

func TestList(t *testing.T) {
	u := NewWithWriter(&bytes.Buffer{})

	assert.Empty(t, u.List("Skipped", nil, 3))

	out := u.List("Skipped", []string{"a", "b", "c", "d", "e"}, 3)
	assert.Equal(t, "[WARN] Skipped\n    a\n    b\n    c\n    ... and 2 more", out)

	out = u.List("Skipped", []string{"a"}, 0)
	assert.Equal(t, "[WARN] Skipped\n    a", out)
}

func TestSummaryBoxPlain(t *testing.T) {
	u := NewWithWriter(&bytes.Buffer{})
	out := u.SummaryBox("Run Complete", []KV{
		{Key: "Accounts", Value: "2"},
		{Key: "Status", Value: "Success"},
	})

	assert.Contains(t, out, "=== Run Complete ===")
	assert.Contains(t, out, "Accounts:        2\n")
	assert.Contains(t, out, "Status:          Success\n")
}

func TestProgressBarPlain(t *testing.T) {
	var buf bytes.Buffer
	bar := NewWithWriter(&buf).NewProgressBar("Simulating")

	bar.Update(1, 4)
	bar.Update(2, 4)
	bar.Update(4, 4)
	bar.Complete()

	assert.Equal(t, "Simulating: 4/4 done\n", buf.String())
}

func TestProgressBarPlainWithoutUpdates(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf).NewProgressBar("Simulating").Complete()
	assert.Equal(t, "Simulating: 0/0 done\n", buf.String())
}

func TestProgressBarFailPlain(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf).NewProgressBar("Simulating").Fail(errors.New("timeout"))
	assert.Equal(t, "FAILED: timeout\n", buf.String())
}

func TestSpinnerPlain(t *testing.T) {
	var buf bytes.Buffer
	u := NewWithWriter(&buf)

	s := u.NewSpinner("Generating")
	s.Success("before start")
	assert.Empty(t, buf.String())

	s.Start()
	s.Start()
	s.Success("3 files")
	s.Error("after finish")
	s.Stop()

	assert.Equal(t, "Generating... 3 files\n", buf.String())
}
