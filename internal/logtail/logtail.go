// Package logtail reads the end of Explore's log file for the logs command.
//
// Lines are kept in a ring buffer sized to the requested count, so the whole
// file never sits in memory. An optional minimum level drops lines whose
// zerolog console level tag (TRC, DBG, INF, WRN, ERR, FTL, PNC) is below it;
// lines without a recognizable tag, such as wrapped continuation output, are
// always kept.
package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var levelTags = map[string]zerolog.Level{
	"TRC": zerolog.TraceLevel,
	"DBG": zerolog.DebugLevel,
	"INF": zerolog.InfoLevel,
	"WRN": zerolog.WarnLevel,
	"ERR": zerolog.ErrorLevel,
	"FTL": zerolog.FatalLevel,
	"PNC": zerolog.PanicLevel,
}

// Read returns at most maxLines from the end of the file at path whose level
// is at least minLevel. A missing file yields no lines.
func Read(path string, maxLines int, minLevel zerolog.Level) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, idx := 0, 0
	for scanner.Scan() {
		line := scanner.Text()
		if level, ok := LineLevel(line); ok && level < minLevel {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// LineLevel extracts the level from a console-formatted line: the second
// space-separated field after the timestamp.
func LineLevel(line string) (zerolog.Level, bool) {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		return zerolog.NoLevel, false
	}
	level, ok := levelTags[fields[1]]
	return level, ok
}
