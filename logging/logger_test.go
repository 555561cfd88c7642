package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestCustomFormatterLine(t *testing.T) {
	f := &CustomFormatter{SystemName: "taskflow-test", Location: time.UTC}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2026, 3, 4, 10, 11, 12, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "Event ID: MOVE_FAILED, Description: boom",
		Data:    logrus.Fields{"task": "t1", "status": "done"},
		Buffer:  &bytes.Buffer{},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	line := string(out)

	for _, want := range []string{
		"Date: 2026-03-04, Time: 10:11:12, ",
		"Event Source: taskflow-test, ",
		"Event Type: WARNING, ",
		"Message: Event ID: MOVE_FAILED, Description: boom",
		", status=done, task=t1",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("expected trailing newline, got %q", line)
	}
}

func TestCustomFormatterUniqueEventIDs(t *testing.T) {
	f := &CustomFormatter{SystemName: "x", Location: time.UTC}
	mk := func() string {
		out, err := f.Format(&logrus.Entry{Logger: logrus.New(), Time: time.Now(), Level: logrus.InfoLevel, Message: "m"})
		if err != nil {
			t.Fatalf("format: %v", err)
		}
		return string(out)
	}
	if mk() == mk() {
		t.Fatal("expected distinct event ids per entry")
	}
}
