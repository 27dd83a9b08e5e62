package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Segment is a contiguous run of lines that git blame attributes to a single
// commit. Line numbers are 1-based and inclusive. Lines holds the blamed
// content verbatim so callers can hash it.
type Segment struct {
	StartLine int
	EndLine   int
	CommitSHA string
	// ParentSHA is the commit that last touched the file before CommitSHA,
	// from the porcelain "previous" header. Empty for root commits and
	// uncommitted lines.
	ParentSHA string
	// Timestamp is the commit's author time in RFC 3339, empty when git did
	// not report one.
	Timestamp string
	Lines     []string
}

// Blame runs git blame over path, resolved relative to the working directory,
// and groups the per-line output into segments sharing a commit. Uncommitted
// lines come back under git's all-zero SHA.
func Blame(ctx context.Context, path string) ([]Segment, error) {
	out, err := exec.CommandContext(ctx, "git", "blame", "--line-porcelain", "--", path).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("git blame %s: %s", path, bytes.TrimSpace(exitErr.Stderr))
		}
		return nil, fmt.Errorf("git blame %s: %w", path, err)
	}

	lines, err := parseBlame(out)
	if err != nil {
		return nil, fmt.Errorf("parse git blame %s: %w", path, err)
	}
	return groupSegments(lines), nil
}

// lineBlame is one line record from --line-porcelain output.
type lineBlame struct {
	commitSHA string
	parentSHA string
	authored  time.Time
	number    int
	content   string
}

// parseBlame walks --line-porcelain output. Every line record starts with a
// "<sha> <orig> <final>" header, carries a full set of metadata headers, and
// ends with the tab-prefixed line content.
func parseBlame(out []byte) ([]lineBlame, error) {
	var (
		lines      []lineBlame
		current    lineBlame
		open       bool
		authorTime int64
		authorZone = time.UTC
	)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "\t"):
			if !open {
				continue
			}
			current.content = line[1:]
			if authorTime != 0 {
				current.authored = time.Unix(authorTime, 0).In(authorZone)
			}
			lines = append(lines, current)
			open = false
		case isCommitHeader(line):
			fields := strings.Fields(line)
			number, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("malformed blame header %q", line)
			}
			current = lineBlame{commitSHA: fields[0], number: number}
			authorTime, authorZone = 0, time.UTC
			open = true
		case strings.HasPrefix(line, "previous "):
			if fields := strings.Fields(line); len(fields) >= 2 {
				current.parentSHA = fields[1]
			}
		case strings.HasPrefix(line, "author-time "):
			authorTime, _ = strconv.ParseInt(strings.TrimPrefix(line, "author-time "), 10, 64)
		case strings.HasPrefix(line, "author-tz "):
			authorZone = parseZone(strings.TrimPrefix(line, "author-tz "))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan blame output: %w", err)
	}
	return lines, nil
}

// groupSegments folds consecutive line records sharing a commit into one
// segment. Parent SHA and author time are identical across a record group, so
// the first record's values stand for the segment.
func groupSegments(lines []lineBlame) []Segment {
	var segs []Segment
	for _, ln := range lines {
		if n := len(segs); n > 0 {
			last := &segs[n-1]
			if last.CommitSHA == ln.commitSHA && last.EndLine+1 == ln.number {
				last.EndLine = ln.number
				last.Lines = append(last.Lines, ln.content)
				continue
			}
		}
		seg := Segment{
			StartLine: ln.number,
			EndLine:   ln.number,
			CommitSHA: ln.commitSHA,
			ParentSHA: ln.parentSHA,
			Lines:     []string{ln.content},
		}
		if !ln.authored.IsZero() {
			seg.Timestamp = ln.authored.Format(time.RFC3339)
		}
		segs = append(segs, seg)
	}
	return segs
}

// isCommitHeader reports whether line opens a new record: a 40+ char hex SHA
// followed by the original and final line numbers. Metadata headers all start
// with a non-hex keyword, so the hex check alone separates the two.
func isCommitHeader(line string) bool {
	fields := strings.Fields(line)
	return len(fields) >= 3 && len(fields[0]) >= 40 && isHex(fields[0])
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// parseZone converts a porcelain author-tz value like "-0500" into a fixed
// offset. Anything unparseable falls back to UTC.
func parseZone(tz string) *time.Location {
	if len(tz) != 5 {
		return time.UTC
	}
	sign := 1
	switch tz[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return time.UTC
	}
	hours, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return time.UTC
	}
	minutes, err := strconv.Atoi(tz[3:5])
	if err != nil {
		return time.UTC
	}
	return time.FixedZone(tz, sign*(hours*3600+minutes*60))
}
