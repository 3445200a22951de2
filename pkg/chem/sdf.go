package chem

import (
	"bufio"
	"io"
	"strings"

	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// maxSDFLine bounds a single SDF line; data items can be long.
const maxSDFLine = 4 << 20

// Record is one entry of an SD file.  Mol is nil and Err is set when the
// connection table could not be parsed.
type Record struct {
	Index      int
	Title      string
	MolBlock   string
	Properties []Property
	Mol        *Molecule
	Err        error
}

// Property is an SDF data item ("> <name>" followed by value lines).
type Property struct {
	Name  string
	Value string
}

// ReadSDF splits r into records on "$$$$" lines and parses each molblock.
// Parse failures are recorded per record; the returned error only reports
// I/O problems.
func ReadSDF(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxSDFLine)

	var (
		records []Record
		cur     []string
	)
	flush := func() {
		if len(cur) == 0 || strings.TrimSpace(strings.Join(cur, "")) == "" {
			cur = nil
			return
		}
		records = append(records, buildRecord(len(records), cur))
		cur = nil
	}
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimRight(line, " \t") == "$$$$" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	if err := sc.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSDFReadFailed, "Error reading SDF file")
	}
	flush()
	return records, nil
}

// FirstValid returns the first record whose molecule parsed, or nil.
func FirstValid(records []Record) *Record {
	for i := range records {
		if records[i].Mol != nil {
			return &records[i]
		}
	}
	return nil
}

func buildRecord(index int, lines []string) Record {
	rec := Record{Index: index}
	if len(lines) > 0 {
		rec.Title = strings.TrimSpace(lines[0])
	}

	end := len(lines)
	for i, l := range lines {
		if strings.HasPrefix(l, "M  END") {
			end = i + 1
			break
		}
	}
	rec.MolBlock = strings.Join(lines[:end], "\n") + "\n"
	rec.Properties = parseDataItems(lines[end:])
	rec.Mol, rec.Err = ParseMolBlock(rec.MolBlock)
	return rec
}

func parseDataItems(lines []string) []Property {
	var props []Property
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		if !strings.HasPrefix(l, ">") {
			continue
		}
		open := strings.IndexByte(l, '<')
		closeIdx := strings.LastIndexByte(l, '>')
		if open < 0 || closeIdx <= open {
			continue
		}
		p := Property{Name: l[open+1 : closeIdx]}
		var vals []string
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			i++
			vals = append(vals, lines[i])
		}
		p.Value = strings.Join(vals, "\n")
		props = append(props, p)
	}
	return props
}
