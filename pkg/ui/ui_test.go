package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	titles   []string
	messages []string
	err      error
}

func (f *fakeSender) Send(title, message string) error {
	f.titles = append(f.titles, title)
	f.messages = append(f.messages, message)
	return f.err
}

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	prevOut, prevErr := Stdout, Stderr
	Stdout, Stderr = &out, &errOut
	SetColor(false)
	t.Cleanup(func() {
		Stdout, Stderr = prevOut, prevErr
	})
	return &out, &errOut
}

func TestPrintFunctions(t *testing.T) {
	out, errOut := captureOutput(t)

	PrintSuccess("saved")
	PrintInfo("Output", "/tmp/paystubs")
	PrintHighlight("highlight")
	PrintError("Download failed", errors.New("boom"))
	PrintWarning("no cookies")

	assert.Equal(t, "saved\nOutput: /tmp/paystubs\nhighlight\n", out.String())
	assert.Equal(t, "Download failed: boom\nno cookies\n", errOut.String())
}

func TestColorize(t *testing.T) {
	SetColor(true)
	t.Cleanup(func() { SetColor(false) })

	assert.Equal(t, "\033[32mok\033[0m", Green("ok"))

	SetColor(false)
	assert.Equal(t, "ok", Green("ok"))
}

func TestPrintRunSummary(t *testing.T) {
	out, _ := captureOutput(t)

	PrintRunSummary(RunSummary{Listed: 12, Downloaded: 2, Skipped: 10, StoppedEarly: true})

	assert.Contains(t, out.String(), "Statements listed: 12")
	assert.Contains(t, out.String(), "Downloaded: 2")
	assert.Contains(t, out.String(), "Already present: 10")
	assert.NotContains(t, out.String(), "Other years")
	assert.Contains(t, out.String(), "stopped early")
}

func TestNotifierRunComplete(t *testing.T) {
	tests := []struct {
		downloaded int
		want       string
	}{
		{0, "No new pay statements"},
		{1, "1 new pay statement downloaded"},
		{3, "3 new pay statements downloaded"},
	}

	for _, tt := range tests {
		sender := &fakeSender{}
		n := NewNotifierWithSender(sender)

		require.NoError(t, n.RunComplete(RunSummary{Downloaded: tt.downloaded}))
		require.Len(t, sender.messages, 1)
		assert.Equal(t, "paystubdl", sender.titles[0])
		assert.Equal(t, tt.want, sender.messages[0])
	}
}

func TestNotifierRunFailed(t *testing.T) {
	sender := &fakeSender{err: errors.New("notify-send missing")}
	n := NewNotifierWithSender(sender)

	err := n.RunFailed(errors.New("auth error: authentication rejected"))
	assert.EqualError(t, err, "notify-send missing")
	assert.Equal(t, []string{"auth error: authentication rejected"}, sender.messages)
}

func TestDisabledNotifierIsSilent(t *testing.T) {
	n := NewNotifier(false)
	assert.NoError(t, n.RunComplete(RunSummary{Downloaded: 5}))
}

func TestAppleScriptString(t *testing.T) {
	assert.Equal(t, `"say \"hi\" \\ bye"`, appleScriptString(`say "hi" \ bye`))
}
