package stats

// Summary gathers the class level aggregates of a snapshot.
type Summary struct {
	CohortSize     int                `json:"cohort_size"`
	Averaged       int                `json:"averaged"`
	SuccessRate    int                `json:"success_rate"`
	OverallAverage *float64           `json:"overall_average"`
	Distribution   Distribution       `json:"distribution"`
	Best           *Ranked            `json:"best"`
	Worst          *Ranked            `json:"worst"`
	Completion     []ModuleCompletion `json:"completion"`
	ModuleAverages []ModuleAverage    `json:"module_averages"`
	Absences       []AbsenceTotal     `json:"absences"`
}

func Summarize(s Snapshot) Summary {
	sum := Summary{
		CohortSize:     len(s.Students),
		SuccessRate:    SuccessRate(s),
		Distribution:   Distribute(s),
		Completion:     Completion(s),
		ModuleAverages: ModuleAverages(s),
		Absences:       AbsenceTotals(s),
	}
	sum.Averaged = sum.Distribution.Total()
	if avg, ok := OverallAverage(s); ok {
		sum.OverallAverage = &avg
	}
	if best, worst, ok := BestAndWorst(s); ok {
		sum.Best, sum.Worst = &best, &worst
	}
	return sum
}
