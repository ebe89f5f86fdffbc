package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/grade"
)

type gradeApi struct {
	svc grade.Service
}

func registerGradeAPI(g *echo.Group, svc grade.Service) {
	api := gradeApi{svc: svc}

	g.GET("/grades", api.queryGrades)
	g.PUT("/grades/:student_id/:module_id", api.setGrade)

	g.GET("/absences", api.queryAbsences)
	g.PUT("/absences/:student_id/:module_id", api.setAbsence)
}

func keyOf(ctx echo.Context) grade.Key {
	return grade.Key{StudentID: ctx.Param("student_id"), ModuleID: ctx.Param("module_id")}
}

// setGrade records the grade, or removes it when the value is null.
func (api *gradeApi) setGrade(ctx echo.Context) error {
	var data grade.SetGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetGrade")
	}

	g, err := api.svc.SetGrade(ctx.Request().Context(), keyOf(ctx), data.Value)
	if err != nil {
		return errors.Wrap(err, "setting grade")
	}
	if g == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) setAbsence(ctx echo.Context) error {
	var data grade.SetAbsence
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetAbsence")
	}

	abs, err := api.svc.SetAbsence(ctx.Request().Context(), keyOf(ctx), data.Count)
	if err != nil {
		return errors.Wrap(err, "setting absence")
	}
	return ctx.JSON(http.StatusOK, abs)
}

func (api *gradeApi) queryGrades(ctx echo.Context) error {
	filter := new(grade.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []grade.Grade{})
	}

	grades, err := api.svc.QueryGrades(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) queryAbsences(ctx echo.Context) error {
	filter := new(grade.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []grade.Absence{})
	}

	absences, err := api.svc.QueryAbsences(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying absences")
	}
	if absences == nil {
		absences = []grade.Absence{}
	}
	return ctx.JSON(http.StatusOK, absences)
}
