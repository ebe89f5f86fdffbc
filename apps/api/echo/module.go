package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/module"
)

type moduleApi struct {
	svc      module.Service
	validate *validator.Validate
}

func registerModuleAPI(g *echo.Group, svc module.Service, validate *validator.Validate) {
	api := moduleApi{svc: svc, validate: validate}

	mg := g.Group("/modules")
	mg.POST("", api.create)
	mg.GET("", api.query)

	dg := mg.Group("/:id", moduleCtxMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *moduleApi) create(ctx echo.Context) error {
	var data module.NewModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.validate, api.svc); err != nil {
		return err
	}

	mod, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating module")
	}
	return ctx.JSON(http.StatusCreated, mod)
}

func (api *moduleApi) query(ctx echo.Context) error {
	filter := new(module.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []module.Module{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	modules, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying modules")
	}
	if modules == nil {
		modules = []module.Module{}
	}
	return ctx.JSON(http.StatusOK, modules)
}

func (api *moduleApi) retrieve(ctx echo.Context) error {
	mod, err := ctxModule(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *moduleApi) update(ctx echo.Context) error {
	mod, err := ctxModule(ctx)
	if err != nil {
		return err
	}

	var data module.UpdateModule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateModule")
	}
	rctx := ctx.Request().Context()
	if err = data.Validate(rctx, mod, api.validate, api.svc); err != nil {
		return err
	}

	mod, err = api.svc.Update(rctx, mod.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating module")
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *moduleApi) destroy(ctx echo.Context) error {
	mod, err := ctxModule(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), mod.ID); err != nil {
		return errors.Wrap(err, "deleting module")
	}
	return ctx.NoContent(http.StatusNoContent)
}
