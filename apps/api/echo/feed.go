package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasadev/darasa/core/feed"
	"github.com/darasadev/darasa/core/user"
)

type feedApi struct {
	svc      feed.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerFeedAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc feed.Service, usrSvc user.Service, validate *validator.Validate) {
	api := feedApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	fg := g.Group("/feed", jwt)
	fg.GET("", api.query)
	fg.POST("", api.create)
	fg.GET("/:id", api.retrieve)
	fg.PUT("/:id/pin", api.pin, adminMiddleware())
	fg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *feedApi) query(ctx echo.Context) error {
	filter := new(feed.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []feed.Post{})
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	filter.OrgID = claims.OrgID

	posts, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	if posts == nil {
		posts = []feed.Post{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *feedApi) create(ctx echo.Context) error {
	var data feed.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	post, err := api.svc.Create(ctx.Request().Context(), ctxUsr.OrgID, ctxUsr.ID, ctxUsr.Name, data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *feedApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	post, err := api.svc.Get(ctx.Request().Context(), claims.OrgID, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == feed.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *feedApi) pin(ctx echo.Context) error {
	var data PinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PinRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	post, err := api.svc.Pin(ctx.Request().Context(), claims.OrgID, ctx.Param("id"), data.Pinned)
	if err != nil {
		if errors.Cause(err) == feed.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "pinning post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *feedApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	post, err := api.svc.Get(ctx.Request().Context(), claims.OrgID, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == feed.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding post")
	}

	// authors delete their own posts; admins delete any
	if post.AuthorID != claims.Subject && !claims.IsAdmin {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), claims.OrgID, post.ID); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type PinRequest struct {
	Pinned bool `json:"pinned"`
}
