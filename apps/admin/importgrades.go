package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/student"
)

const (
	nationalIDColumn = "national_id"
	suggestionCutoff = 0.6
)

var errNoHeader = errors.New("the file is empty: expected a national_id,<module name>,... header")

// importResult counts what an import changed. Row errors do not stop the import.
type importResult struct {
	Set     int
	Removed int
	Errors  []string
}

func (res *importResult) errorf(format string, args ...interface{}) {
	res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
}

func (cli *commandLine) importGradesFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening grades file")
	}
	defer func() { _ = f.Close() }()

	res, err := cli.importGrades(ctx, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%d grade(s) set, %d removed\n", res.Set, res.Removed)
	if len(res.Errors) > 0 {
		red := color.New(color.FgRed)
		_, _ = red.Fprintf(cli.out, "%d error(s):\n", len(res.Errors))
		for _, msg := range res.Errors {
			_, _ = red.Fprintln(cli.out, "  "+msg)
		}
	}
	return nil
}

// importGrades records the grades of a csv file whose header is national_id followed by module names.
// A blank cell removes the grade; only grades that existed count as removed. Unknown modules and students, and invalid values, are reported and skipped.
func (cli *commandLine) importGrades(ctx context.Context, r io.Reader) (importResult, error) {
	var res importResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return res, errNoHeader
	} else if err != nil {
		return res, errors.Wrap(err, "reading header")
	}
	if len(header) == 0 || !strings.EqualFold(core.CleanString(header[0]), nationalIDColumn) {
		return res, errors.Errorf("the first column must be %q", nationalIDColumn)
	}

	columns, err := cli.moduleColumns(ctx, header[1:], &res)
	if err != nil {
		return res, err
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if perr, ok := err.(*csv.ParseError); ok {
				res.errorf("line %d: %v", perr.StartLine, perr.Err)
			} else {
				res.errorf("%v", err)
			}
			continue
		}
		// quoted cells may span several lines: report the line the record starts on
		line, _ := reader.FieldPos(0)
		cli.importRow(ctx, line, record, columns, &res)
	}
	return res, nil
}

// moduleColumns maps each header column to its module; unknown columns are nil.
func (cli *commandLine) moduleColumns(ctx context.Context, names []string, res *importResult) ([]*module.Module, error) {
	modules, err := cli.modSvc.Query(ctx, module.QueryFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	byName := make(map[string]*module.Module, len(modules))
	known := make([]string, 0, len(modules))
	for i := range modules {
		byName[strings.ToLower(modules[i].Name)] = &modules[i]
		known = append(known, modules[i].Name)
	}

	columns := make([]*module.Module, len(names))
	for i, name := range names {
		name = core.CleanString(name)
		if mod, ok := byName[strings.ToLower(name)]; ok {
			columns[i] = mod
			continue
		}
		if suggestion := closestMatch(name, known); suggestion != "" {
			res.errorf("unknown module %q, did you mean %q? column skipped", name, suggestion)
		} else {
			res.errorf("unknown module %q, column skipped", name)
		}
	}
	return columns, nil
}

func (cli *commandLine) importRow(ctx context.Context, line int, record []string, columns []*module.Module, res *importResult) {
	nationalID := core.CleanString(record[0])
	std, err := cli.stdSvc.GetByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			res.errorf("line %d: unknown student %q", line, nationalID)
		} else {
			res.errorf("line %d: %v", line, err)
		}
		return
	}

	for i, mod := range columns {
		if mod == nil || i+1 >= len(record) {
			continue
		}
		key := grade.Key{StudentID: std.ID, ModuleID: mod.ID}

		cell := core.CleanString(record[i+1])
		if cell == "" {
			removed, err := cli.removeGrade(ctx, key)
			if err != nil {
				res.errorf("line %d, %s: %v", line, mod.Name, err)
			} else if removed {
				res.Removed++
			}
			continue
		}

		value, err := strconv.ParseFloat(strings.Replace(cell, ",", ".", 1), 64)
		if err != nil {
			res.errorf("line %d, %s: %q is not a number", line, mod.Name, cell)
			continue
		}
		if _, err := cli.grdSvc.SetGrade(ctx, key, &value); err != nil {
			res.errorf("line %d, %s: %v", line, mod.Name, err)
			continue
		}
		res.Set++
	}
}

// removeGrade deletes the grade of key; removed is false when there was none.
func (cli *commandLine) removeGrade(ctx context.Context, key grade.Key) (removed bool, err error) {
	existing, err := cli.grdSvc.QueryGrades(ctx, grade.QueryFilter{StudentID: key.StudentID, ModuleID: key.ModuleID})
	if err != nil {
		return false, errors.Wrap(err, "querying grade")
	}
	if len(existing) == 0 {
		return false, nil
	}
	if _, err := cli.grdSvc.SetGrade(ctx, key, nil); err != nil {
		return false, err
	}
	return true, nil
}

// closestMatch returns the candidate most similar to word, or "" when none is close enough.
func closestMatch(word string, candidates []string) string {
	var (
		best      string
		bestRatio float64
	)
	lower := strings.ToLower(word)
	for _, cand := range candidates {
		m := difflib.NewMatcher(strings.Split(lower, ""), strings.Split(strings.ToLower(cand), ""))
		if ratio := m.Ratio(); ratio >= suggestionCutoff && ratio > bestRatio {
			best, bestRatio = cand, ratio
		}
	}
	return best
}
