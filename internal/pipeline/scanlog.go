package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ScanLogFile is the per-run log, one summary JSON object per line.
const ScanLogFile = "scan_log.jsonl"

// ScanLogPath returns the scan log path inside a data directory.
func ScanLogPath(dataDir string) string {
	return filepath.Join(dataDir, ScanLogFile)
}

// AppendScanLog appends a run summary to the scan log.
func AppendScanLog(dataDir string, sum *Summary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("encoding scan log entry: %w", err)
	}

	f, err := os.OpenFile(ScanLogPath(dataDir), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening scan log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing scan log: %w", err)
	}
	return nil
}

// ReadScanLog returns all recorded run summaries, oldest first.
// A missing log is an empty history, not an error.
func ReadScanLog(dataDir string) ([]Summary, error) {
	f, err := os.Open(ScanLogPath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening scan log: %w", err)
	}
	defer f.Close()

	var out []Summary
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var s Summary
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("parsing scan log: %w", err)
		}
		out = append(out, s)
	}
	return out, sc.Err()
}
