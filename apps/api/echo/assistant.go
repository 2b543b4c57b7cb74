package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasadev/darasa/core/assistant"
)

type assistantApi struct {
	svc      assistant.Service
	validate *validator.Validate
}

func registerAssistantAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc assistant.Service, validate *validator.Validate) {
	api := assistantApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/assistant/conversations", jwt)
	ag.GET("", api.query)
	ag.POST("", api.start)
	ag.GET("/:id", api.retrieve)
	ag.GET("/:id/messages", api.messages)
	ag.POST("/:id/messages", api.send)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *assistantApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	convs, err := api.svc.Query(ctx.Request().Context(), claims.OrgID, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying conversations")
	}
	if convs == nil {
		convs = []assistant.Conversation{}
	}
	return ctx.JSON(http.StatusOK, convs)
}

func (api *assistantApi) start(ctx echo.Context) error {
	var data assistant.NewConversation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewConversation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	conv, err := api.svc.Start(ctx.Request().Context(), claims.OrgID, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "starting conversation")
	}
	return ctx.JSON(http.StatusCreated, conv)
}

func (api *assistantApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	conv, err := api.svc.Get(ctx.Request().Context(), claims.OrgID, claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == assistant.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding conversation")
	}
	return ctx.JSON(http.StatusOK, conv)
}

func (api *assistantApi) messages(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	msgs, err := api.svc.Messages(ctx.Request().Context(), claims.OrgID, claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == assistant.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "querying messages")
	}
	if msgs == nil {
		msgs = []assistant.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *assistantApi) send(ctx echo.Context) error {
	var data assistant.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	msg, err := api.svc.Send(ctx.Request().Context(), claims.OrgID, claims.Subject, ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == assistant.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *assistantApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(ctx.Request().Context(), claims.OrgID, claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting conversation")
	}
	return ctx.NoContent(http.StatusNoContent)
}
