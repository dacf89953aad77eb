package monitoring

import (
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op logger that must not panic.
	SetLogger(nil)
	Logf("test message")

	called = false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	SetLogger(nil)
	Logf("test")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestDebugf(t *testing.T) {
	original := Logf
	defer func() {
		Logf = original
		SetVerbose(false)
	}()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, format)
	})

	SetVerbose(false)
	Debugf("hidden")
	if len(lines) != 0 {
		t.Errorf("Debugf logged while verbose off: %v", lines)
	}

	SetVerbose(true)
	Debugf("shown")
	if len(lines) != 1 {
		t.Errorf("Debugf did not log while verbose on: %v", lines)
	}
}
