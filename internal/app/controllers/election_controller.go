package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/middleware"
	"github.com/miu/unidesk/internal/pkg/apperrors"
	"github.com/miu/unidesk/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// ElectionController serves the public election pages
type ElectionController struct {
	electionService services.ElectionService
	voterService    services.VoterService
	authService     services.AuthService
	logger          zerolog.Logger
}

// NewElectionController creates a new ElectionController
func NewElectionController(
	electionService services.ElectionService,
	voterService services.VoterService,
	authService services.AuthService,
	logger zerolog.Logger,
) *ElectionController {
	return &ElectionController{
		electionService: electionService,
		voterService:    voterService,
		authService:     authService,
		logger:          logger,
	}
}

// Home lists the candidates of every position with their vote counts
func (c *ElectionController) Home(ctx *gin.Context) {
	home, err := c.electionService.Home(requestContext(ctx))
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.HTML(http.StatusOK, "home.html", page(ctx, "Student Elections", gin.H{
		"Positions": home.Positions,
		"Year":      home.Year,
	}))
}

// RegisterForm shows the voter registration form
func (c *ElectionController) RegisterForm(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "register.html", page(ctx, "Register", gin.H{
		"Form": dto.VoterRegistrationForm{},
	}))
}

// Register creates a voter account and mails the generated password
func (c *ElectionController) Register(ctx *gin.Context) {
	var form dto.VoterRegistrationForm
	err := middleware.BindForm(ctx, &form)
	if err == nil {
		_, err = c.voterService.Register(requestContext(ctx), form)
	}
	if err != nil {
		if fields, general, ok := formErrors(err); ok {
			ctx.HTML(http.StatusOK, "register.html", page(ctx, "Register", gin.H{
				"Form":   form,
				"Errors": fields,
				"Notes":  general,
			}))
			return
		}
		renderError(ctx, c.logger, err)
		return
	}

	middleware.AddFlash(ctx, middleware.FlashSuccess, services.MsgRegistration)
	ctx.Redirect(http.StatusFound, "/login/")
}

// LoginForm shows the election login form
func (c *ElectionController) LoginForm(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "login.html", page(ctx, "Login", gin.H{
		"Action": "/login/",
		"Next":   ctx.Query("next"),
	}))
}

// Login authenticates a voter by registration number or email
func (c *ElectionController) Login(ctx *gin.Context) {
	login(ctx, c.authService, c.logger, services.PortalElection, "login.html", "/login/", "/vote/")
}

// Logout ends the session
func (c *ElectionController) Logout(ctx *gin.Context) {
	if err := middleware.EndSession(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to clear session")
	}
	middleware.AddFlash(ctx, middleware.FlashInfo, "You have been logged out.")
	ctx.Redirect(http.StatusFound, "/login/")
}

// Ballot shows the voting page
func (c *ElectionController) Ballot(ctx *gin.Context) {
	c.renderBallot(ctx, nil)
}

func (c *ElectionController) renderBallot(ctx *gin.Context, formErr error) {
	id := middleware.CurrentIdentity(ctx)
	ballot, err := c.electionService.BallotFor(requestContext(ctx), id.ID)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	data := gin.H{"Ballot": ballot}
	if formErr != nil {
		fields, general, _ := formErrors(formErr)
		data["Errors"] = fields
		data["Notes"] = general
	}
	ctx.HTML(http.StatusOK, "vote.html", page(ctx, "Vote", data))
}

// Vote stores the submitted ballot
func (c *ElectionController) Vote(ctx *gin.Context) {
	id := middleware.CurrentIdentity(ctx)
	if err := ctx.Request.ParseForm(); err != nil {
		renderError(ctx, c.logger, apperrors.NewBadRequestError("Invalid ballot."))
		return
	}
	selections, err := dto.ParseBallot(ctx.Request.PostForm)
	if err == nil {
		err = c.electionService.CastBallot(requestContext(ctx), id.ID, selections)
	}
	if err != nil {
		var already *apperrors.AlreadyVotedError
		switch {
		case errors.As(err, &already):
			middleware.AddFlash(ctx, middleware.FlashError, already.Error())
			ctx.Redirect(http.StatusFound, "/vote/")
		case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrEmptyBallot):
			if _, _, ok := formErrors(err); !ok {
				err = apperrors.FieldErrors{{Message: "Invalid ballot.", Err: err}}
			}
			c.renderBallot(ctx, err)
		default:
			renderError(ctx, c.logger, err)
		}
		return
	}

	middleware.AddFlash(ctx, middleware.FlashSuccess, "Your vote has been successfully cast!")
	ctx.Redirect(http.StatusFound, "/success/")
}

// Success shows the running results
func (c *ElectionController) Success(ctx *gin.Context) {
	results, err := c.electionService.Results(requestContext(ctx))
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.HTML(http.StatusOK, "success.html", page(ctx, "Results", gin.H{"Results": results}))
}

// login is the POST handler shared by the three login pages
func login(ctx *gin.Context, authService services.AuthService, logger zerolog.Logger,
	portal services.Portal, template, action, fallback string) {
	var form dto.LoginForm
	next := ctx.PostForm("next")

	var (
		id    *auth.Identity
		token string
	)
	err := middleware.BindForm(ctx, &form)
	if err != nil {
		logger.Debug().Err(err).Str("portal", string(portal)).Msg("Login form rejected")
		err = apperrors.FieldErrors{{Message: services.MsgInvalidLogin, Err: apperrors.ErrInvalidCredentials}}
	} else {
		id, token, _, err = authService.Login(requestContext(ctx), portal, form)
	}
	if err != nil {
		if _, general, ok := formErrors(err); ok {
			ctx.HTML(http.StatusOK, template, page(ctx, "Login", gin.H{
				"Action": action,
				"Next":   next,
				"RegNo":  form.RegNo,
				"Notes":  general,
			}))
			return
		}
		renderError(ctx, logger, err)
		return
	}
	if err := middleware.StartSession(ctx, id, token); err != nil {
		renderError(ctx, logger, err)
		return
	}
	ctx.Redirect(http.StatusFound, safeNext(next, fallback))
}
