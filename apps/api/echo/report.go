package echoapi

import (
	"net/http"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/report"
)

type reportApi struct {
	svc      report.Service
	validate *validator.Validate
}

func registerReportAPI(g *echo.Group, svc report.Service, validate *validator.Validate) {
	api := reportApi{svc: svc, validate: validate}

	rg := g.Group("/reports")
	rg.GET("/class", api.class)
	rg.GET("/ranking", api.ranking)
	rg.GET("/students/:id", api.student)
	rg.POST("/students/:id/send", api.sendStudent)
}

// Every report accepts `?group=`; no group means the whole class.

func (api *reportApi) class(ctx echo.Context) error {
	rep, err := api.svc.ClassReport(ctx.Request().Context(), groupOf(ctx))
	if err != nil {
		return errors.Wrap(err, "building class report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) ranking(ctx echo.Context) error {
	rnk, err := api.svc.Ranking(ctx.Request().Context(), groupOf(ctx))
	if err != nil {
		return errors.Wrap(err, "building ranking")
	}
	return ctx.JSON(http.StatusOK, rnk)
}

func (api *reportApi) student(ctx echo.Context) error {
	rep, err := api.svc.StudentReport(ctx.Request().Context(), ctx.Param("id"), groupOf(ctx))
	if err != nil {
		return errors.Wrap(err, "building student report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) sendStudent(ctx echo.Context) error {
	var data report.SendReportCard
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendReportCard")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	to := mail.Address{Name: data.Name, Address: data.Email}
	if err := api.svc.SendStudentReport(ctx.Request().Context(), ctx.Param("id"), groupOf(ctx), to); err != nil {
		return errors.Wrap(err, "sending report card")
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "The report card will be sent to " + to.Address + "."})
}
