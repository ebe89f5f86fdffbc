package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/module"
	"github.com/trezcool/gradebook/core/student"
)

const objectKey = "object"

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

// studentCtxMiddleware loads the student identified by the `:id` param into the context.
func studentCtxMiddleware(svc student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			std, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set(objectKey, std)
			return next(ctx)
		}
	}
}

func moduleCtxMiddleware(svc module.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			mod, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding module by ID")
			}
			ctx.Set(objectKey, mod)
			return next(ctx)
		}
	}
}

func ctxStudent(ctx echo.Context) (student.Student, error) {
	std, ok := ctx.Get(objectKey).(student.Student)
	if !ok {
		return student.Student{}, errors.Wrap(errObjNotFoundInCtx, "retrieving student from context")
	}
	return std, nil
}

func ctxModule(ctx echo.Context) (module.Module, error) {
	mod, ok := ctx.Get(objectKey).(module.Module)
	if !ok {
		return module.Module{}, errors.Wrap(errObjNotFoundInCtx, "retrieving module from context")
	}
	return mod, nil
}
