package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/report"
	"github.com/trezcool/gradebook/core/student"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sql.DB
	out    io.Writer
	stdSvc student.Service
	modSvc module.Service
	grdSvc grade.Service
	rptSvc report.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]     - run a goose command (up, down, status, redo, version, ...)")
	fmt.Fprintln(cli.out, "  importgrades -file FILE    - import grades from a csv file: national_id,<module name>,...")
	fmt.Fprintln(cli.out, "  report [-group GROUP]      - print the class summary")
	fmt.Fprintln(cli.out, "  ranking [-group GROUP]     - print the class ranking")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := cli.newFlagSet("importgrades")
	importFile := importCmd.String("file", "", "The csv file to import; its header is national_id followed by module names.")

	reportCmd := cli.newFlagSet("report")
	reportGroup := reportCmd.String("group", "", "Restrict the report to a group; the whole class by default.")

	rankingCmd := cli.newFlagSet("ranking")
	rankingGroup := rankingCmd.String("group", "", "Restrict the ranking to a group; the whole class by default.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "importgrades":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importGradesFile(ctx, *importFile)
	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.classReport(ctx, *reportGroup)
	case "ranking":
		if err := rankingCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.ranking(ctx, *rankingGroup)
	default:
		cli.printUsage()
		return errHelp
	}
}
