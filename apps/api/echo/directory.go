package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kabasele/shule/core"
	"github.com/kabasele/shule/core/directory"
)

type directoryApi struct {
	deps ServerDeps
}

func registerDirectoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := directoryApi{deps: deps}

	dg := g.Group("/directory", jwt)
	dg.GET("", api.query)
	dg.POST("", api.create, deps.auth.adminMiddleware())
	dg.GET("/:id", api.retrieve)
	dg.PUT("/:id", api.update, deps.auth.adminMiddleware())
	dg.DELETE("/:id", api.destroy, deps.auth.adminMiddleware())
}

// Handlers

func (api *directoryApi) create(ctx echo.Context) error {
	var data directory.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	entry, err := api.deps.DirectorySvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating entry")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *directoryApi) query(ctx echo.Context) error {
	q := core.CleanString(ctx.QueryParam("q"))

	entries, err := api.deps.DirectorySvc.Search(ctx.Request().Context(), q)
	if err != nil {
		return errors.Wrap(err, "searching entries")
	}
	if entries == nil {
		entries = []directory.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *directoryApi) retrieve(ctx echo.Context) error {
	entry, err := api.deps.DirectorySvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *directoryApi) update(ctx echo.Context) error {
	entry, err := api.deps.DirectorySvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting entry")
	}

	var data directory.UpdateEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err := data.Validate(entry, api.deps.Validate); err != nil {
		return err
	}

	entry, err = api.deps.DirectorySvc.Update(ctx.Request().Context(), entry.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *directoryApi) destroy(ctx echo.Context) error {
	if err := api.deps.DirectorySvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
