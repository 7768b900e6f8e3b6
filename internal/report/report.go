// Package report writes the run artifacts: the streaming conversation log
// and the verification report in text and JSON form.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"callcheck/internal/verify"
)

// TranscriptLog streams conversation lines to a test_run_<timestamp>.txt
// file as they happen, so a crash mid-call still leaves a usable log for
// verification.
type TranscriptLog struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewTranscriptLog creates the log file under dir with a header naming the
// persona.
func NewTranscriptLog(dir, personaLabel string) (*TranscriptLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}

	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("test_run_%s.txt", now.Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create transcript log: %w", err)
	}

	header := fmt.Sprintf("Persona: %s\nTime: %s\n%s\n\n",
		personaLabel, now.Format("2006-01-02 15:04:05"), strings.Repeat("-", 20))
	if _, err := f.WriteString(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write transcript header: %w", err)
	}

	return &TranscriptLog{file: f, path: path}, nil
}

// Record appends one line and flushes it immediately. Satisfies the
// orchestrator's recorder contract; write failures are swallowed so a full
// disk cannot abort a live conversation.
func (l *TranscriptLog) Record(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	_, _ = l.file.WriteString(line + "\n")
	_ = l.file.Sync()
}

// Path returns the log file location.
func (l *TranscriptLog) Path() string {
	return l.path
}

// Close finalizes the log file.
func (l *TranscriptLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// WriteVerdict saves the verification report under dir as
// order_verification_<timestamp>.txt: a short human-readable summary
// followed by the full verdict as JSON. Returns the report path.
func WriteVerdict(dir string, v *verify.Verdict) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report dir: %w", err)
	}

	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("order_verification_%s.txt", now.Format("20060102_150405")))

	var b strings.Builder
	b.WriteString("Order Verification Report\n")
	fmt.Fprintf(&b, "Time: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Result: %s (Score: %d/100)\n", resultLabel(v.Passed), v.Score)
	b.WriteString(strings.Repeat("-", 40) + "\n\n")

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal verdict: %w", err)
	}
	b.Write(data)
	b.WriteString("\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Summary renders the verdict for terminal output.
func Summary(v *verify.Verdict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RESULT: %s (Score: %d/100)\n", resultLabel(v.Passed), v.Score)

	if len(v.MatchedItems) > 0 {
		fmt.Fprintf(&b, "\nMatched Items (%d):\n", len(v.MatchedItems))
		for _, item := range v.MatchedItems {
			fmt.Fprintf(&b, "  [PASS] %s\n", item)
		}
	}
	if len(v.MissingItems) > 0 {
		fmt.Fprintf(&b, "\nMissing Items (%d):\n", len(v.MissingItems))
		for _, item := range v.MissingItems {
			fmt.Fprintf(&b, "  [FAIL] %s\n", item)
		}
	}
	if len(v.ExtraItems) > 0 {
		fmt.Fprintf(&b, "\nUnexpected Items (%d):\n", len(v.ExtraItems))
		for _, item := range v.ExtraItems {
			fmt.Fprintf(&b, "  [WARN] %s\n", item)
		}
	}

	if o := v.Overview; o != nil {
		b.WriteString("\nOrder Overview:\n")
		for _, row := range []struct{ label, value string }{
			{"Order #", o.OrderNumber},
			{"Item count", o.ItemCount},
			{"Payment", o.Payment},
			{"Total line", o.OrderTotal},
			{"Total amt", o.OrderTotalAmount},
		} {
			if row.value != "" {
				fmt.Fprintf(&b, "  %-10s : %s\n", row.label, row.value)
			}
		}
	}

	if v.Reasoning != "" {
		fmt.Fprintf(&b, "\nReasoning: %s\n", v.Reasoning)
	}
	return b.String()
}

func resultLabel(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}
