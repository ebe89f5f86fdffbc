package main

import (
	"context"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/stats"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatAverage(avg *float64) string {
	if avg == nil {
		return "-"
	}
	return formatFloat(*avg)
}

func groupTitle(group string) string {
	if group == "" {
		return "whole class"
	}
	return "group " + group
}

func (cli *commandLine) title(s string) {
	_, _ = color.New(color.FgYellow).Fprintln(cli.out, "\n"+s)
}

func (cli *commandLine) classReport(ctx context.Context, group string) error {
	rep, err := cli.rptSvc.ClassReport(ctx, group)
	if err != nil {
		return errors.Wrap(err, "building class report")
	}

	cli.title("Class report (" + groupTitle(group) + ")")
	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Students", strconv.Itoa(rep.CohortSize)})
	table.Append([]string{"Averaged", strconv.Itoa(rep.Averaged)})
	table.Append([]string{"Success rate", strconv.Itoa(rep.SuccessRate) + "%"})
	table.Append([]string{"Overall average", formatAverage(rep.OverallAverage)})
	if rep.Best != nil {
		table.Append([]string{"Best", rep.Best.Student.Name + " (" + formatFloat(rep.Best.Average) + ")"})
	}
	if rep.Worst != nil {
		table.Append([]string{"Worst", rep.Worst.Student.Name + " (" + formatFloat(rep.Worst.Average) + ")"})
	}
	table.Render()

	cli.title("Mentions")
	table = tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Mention", "Students"})
	for _, band := range stats.Mentions {
		table.Append([]string{string(band.Mention), strconv.Itoa(rep.Distribution.Count(band.Mention))})
	}
	table.Render()

	cli.title("Modules")
	table = tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Module", "Coefficient", "Graded", "Completion", "Average"})
	averages := make(map[string]stats.ModuleAverage, len(rep.ModuleAverages))
	for _, ma := range rep.ModuleAverages {
		averages[ma.Module.ID] = ma
	}
	for _, mc := range rep.Completion {
		avg := "-"
		if ma, ok := averages[mc.Module.ID]; ok && ma.Average != nil {
			avg = formatFloat(*ma.Average)
		}
		table.Append([]string{
			mc.Module.Name,
			strconv.FormatFloat(mc.Module.Coefficient, 'g', -1, 64),
			strconv.Itoa(mc.Graded),
			strconv.Itoa(mc.Percent) + "%",
			avg,
		})
	}
	table.Render()
	return nil
}

func (cli *commandLine) ranking(ctx context.Context, group string) error {
	rnk, err := cli.rptSvc.Ranking(ctx, group)
	if err != nil {
		return errors.Wrap(err, "building ranking")
	}

	cli.title("Ranking (" + groupTitle(group) + ")")
	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Rank", "Name", "National ID", "Group", "Average", "Mention", "Percentile"})
	for _, r := range rnk.Ranked {
		table.Append([]string{
			strconv.Itoa(r.Rank),
			r.Student.Name,
			r.Student.NationalID,
			r.Student.Group,
			formatFloat(r.Average),
			string(r.Mention),
			strconv.Itoa(r.Percentile),
		})
	}
	table.Render()

	if len(rnk.Unranked) > 0 {
		cli.title("Not ranked (no grade)")
		table = tablewriter.NewWriter(cli.out)
		table.SetHeader([]string{"Name", "National ID", "Group"})
		for _, std := range rnk.Unranked {
			table.Append([]string{std.Name, std.NationalID, std.Group})
		}
		table.Render()
	}
	return nil
}
