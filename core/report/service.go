package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/mail"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/stats"
	"github.com/trezcool/gradebook/core/student"
)

const reportCardTemplate = "report_card"

type (
	Service interface {
		ClassReport(ctx context.Context, group string) (ClassReport, error)
		Ranking(ctx context.Context, group string) (Ranking, error)
		// StudentReport ranks the student among the students of group ("" for the whole class).
		StudentReport(ctx context.Context, studentID, group string) (StudentReport, error)
		// SendStudentReport emails the report card, with its grades attached as CSV.
		SendStudentReport(ctx context.Context, studentID, group string, to mail.Address) error
	}

	service struct {
		reader  SnapshotReader
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(reader SnapshotReader, mailSvc core.EmailService) Service {
	return &service{reader: reader, mailSvc: mailSvc}
}

func (svc *service) snapshot(ctx context.Context) (stats.Snapshot, error) {
	snap, err := svc.reader.ReadSnapshot(ctx)
	if err != nil {
		return stats.Snapshot{}, errors.Wrap(err, "reading snapshot")
	}
	return snap, nil
}

func (svc *service) ClassReport(ctx context.Context, group string) (ClassReport, error) {
	snap, err := svc.snapshot(ctx)
	if err != nil {
		return ClassReport{}, err
	}
	sum := stats.Summarize(snap.ForGroup(group))

	// presentation rounding
	if sum.OverallAverage != nil {
		avg := stats.Round(*sum.OverallAverage, decimals)
		sum.OverallAverage = &avg
	}
	if sum.Best != nil {
		sum.Best.Average = stats.Round(sum.Best.Average, decimals)
	}
	if sum.Worst != nil {
		sum.Worst.Average = stats.Round(sum.Worst.Average, decimals)
	}
	for i, ma := range sum.ModuleAverages {
		if ma.Average != nil {
			avg := stats.Round(*ma.Average, decimals)
			sum.ModuleAverages[i].Average = &avg
		}
	}

	return ClassReport{Group: group, Summary: sum}, nil
}

func (svc *service) Ranking(ctx context.Context, group string) (Ranking, error) {
	snap, err := svc.snapshot(ctx)
	if err != nil {
		return Ranking{}, err
	}
	snap = snap.ForGroup(group)

	ranked := stats.Rank(snap)
	seen := make(map[string]bool, len(ranked))
	for i := range ranked {
		ranked[i].Average = stats.Round(ranked[i].Average, decimals)
		seen[ranked[i].Student.ID] = true
	}
	unranked := make([]student.Student, 0, len(snap.Students)-len(ranked))
	for _, std := range snap.Students {
		if !seen[std.ID] {
			unranked = append(unranked, std)
		}
	}
	return Ranking{Group: group, Ranked: ranked, Unranked: unranked}, nil
}

func (svc *service) StudentReport(ctx context.Context, studentID, group string) (StudentReport, error) {
	snap, err := svc.snapshot(ctx)
	if err != nil {
		return StudentReport{}, err
	}
	return buildStudentReport(snap, studentID, group)
}

func buildStudentReport(snap stats.Snapshot, studentID, group string) (StudentReport, error) {
	var (
		std   student.Student
		found bool
	)
	for _, s := range snap.Students {
		if s.ID == studentID {
			std, found = s, true
			break
		}
	}
	if !found {
		return StudentReport{}, student.ErrNotFound
	}

	rep := StudentReport{
		Student:       std,
		Group:         group,
		Modules:       make([]ModuleLine, 0, len(snap.Modules)),
		TotalAbsences: stats.TotalAbsences(std.ID, snap.Absences),
	}
	for _, mod := range snap.Modules {
		key := grade.Key{StudentID: std.ID, ModuleID: mod.ID}
		line := ModuleLine{
			ModuleID:    mod.ID,
			Name:        mod.Name,
			Coefficient: mod.Coefficient,
			Absences:    snap.Absences[key],
		}
		if g, ok := snap.Grades[key]; ok {
			line.Grade = &g
		}
		rep.Modules = append(rep.Modules, line)
	}

	avg, ok := stats.Average(std.ID, snap.Modules, snap.Grades)
	if ok {
		rounded := stats.Round(avg, decimals)
		rep.Average = &rounded
		rep.Mention, _ = stats.MentionOf(avg, ok)
	}
	rep.Passed = stats.Passes(avg, ok)

	cohort := snap.ForGroup(group)
	rep.Ranked = len(stats.Rank(cohort))
	rep.Rank, rep.Percentile, _ = stats.Percentile(cohort, std.ID)
	return rep, nil
}

func (svc *service) SendStudentReport(ctx context.Context, studentID, group string, to mail.Address) error {
	rep, err := svc.StudentReport(ctx, studentID, group)
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      "Report card: " + rep.Student.Name,
		TemplateName: reportCardTemplate,
		TemplateData: rep,
	}
	content, err := reportCardCSV(rep)
	if err != nil {
		return errors.Wrap(err, "writing report card csv")
	}
	if err := msg.Attach(bytes.NewReader(content), "report_card.csv", "text/csv"); err != nil {
		return errors.Wrap(err, "attaching report card csv")
	}

	svc.mailSvc.SendMessages(msg)
	return nil
}

func reportCardCSV(rep StudentReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"module", "coefficient", "grade", "absences"})
	for _, line := range rep.Modules {
		grd := ""
		if line.Grade != nil {
			grd = line.GradeText()
		}
		_ = w.Write([]string{line.Name, line.CoefficientText(), grd, strconv.Itoa(line.Absences)})
	}
	_ = w.Write([]string{"average", "", averageCell(rep), strconv.Itoa(rep.TotalAbsences)})
	w.Flush()
	return buf.Bytes(), w.Error()
}

func averageCell(rep StudentReport) string {
	if rep.Average == nil {
		return ""
	}
	return rep.AverageText()
}
