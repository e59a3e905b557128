package manifest

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Record associates a block ID with the qualified name of its function.
type Record struct {
	Name    string
	BlockID uint32
}

// String returns the manifest line of r without the trailing newline.
func (r Record) String() string {
	return r.Name + ":" + strconv.FormatUint(uint64(r.BlockID), 10)
}

// ParseRecord parses a manifest line. The block ID follows the last colon.
func ParseRecord(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	i := strings.LastIndexByte(line, ':')
	if i <= 0 {
		return Record{}, errors.Errorf("malformed manifest record %q", line)
	}
	id, err := strconv.ParseUint(line[i+1:], 10, 32)
	if err != nil {
		return Record{}, errors.Wrapf(err, "malformed block id in %q", line)
	}
	return Record{Name: line[:i], BlockID: uint32(id)}, nil
}

// Count returns the number of records in r. Like Read, it skips blank
// lines and counts an unterminated last line.
func Count(r io.Reader) (uint32, error) {
	br := bufio.NewReader(r)
	var n uint32
	blank := true
	for {
		chunk, err := br.ReadSlice('\n')
		if len(bytes.TrimSpace(chunk)) > 0 {
			blank = false
		}
		if len(chunk) > 0 && chunk[len(chunk)-1] == '\n' {
			if !blank {
				n++
			}
			blank = true
		}
		switch err {
		case nil, bufio.ErrBufferFull:
			continue
		case io.EOF:
			if !blank {
				n++
			}
			return n, nil
		default:
			return n, err
		}
	}
}

// CountFile counts the records of the manifest at path. A missing file
// has zero records; exists reports whether it was found.
func CountFile(path string) (n uint32, exists bool, err error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, errors.Wrapf(err, "failed to open manifest %s", path)
	}
	defer f.Close() // nolint: errcheck

	n, err = Count(f)
	if err != nil {
		return n, true, errors.Wrapf(err, "failed to read manifest %s", path)
	}
	return n, true, nil
}

// Read parses all records of r. Blank lines are skipped.
func Read(r io.Reader) ([]Record, error) {
	var records []Record
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for lineno := 1; s.Scan(); lineno++ {
		line := s.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseRecord(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineno)
		}
		records = append(records, rec)
	}
	return records, s.Err()
}

func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open manifest %s", path)
	}
	defer f.Close() // nolint: errcheck

	records, err := Read(f)
	return records, errors.Wrapf(err, "failed to read manifest %s", path)
}
