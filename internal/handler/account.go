package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/spotatlas/spot-directory/internal/config"
	"github.com/spotatlas/spot-directory/internal/queue"
	"github.com/spotatlas/spot-directory/internal/repository"
	queue_publisher "github.com/spotatlas/spot-directory/internal/service"
	"github.com/spotatlas/spot-directory/internal/utils"
)

// AccountHandler bundles dependencies for account maintenance and the
// password reset flow.
type AccountHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	validate *validator.Validate
}

func NewAccountHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AccountHandler {
	return &AccountHandler{Cfg: cfg, Users: u, Tokens: t, validate: validator.New()}
}

type accountReq struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type forgotReq struct {
	Email string `json:"email"`
}

type resetReq struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// Update changes the authenticated user's name and email.
func (h *AccountHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req accountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validationMessage(err)})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateAccount(ctx, uid, req.Name, req.Email); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update account failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": userPart{
		ID:       uid,
		Email:    req.Email,
		Name:     req.Name,
		Gravatar: utils.Gravatar(req.Email),
	}})
}

// Forgot opens a password reset window for the account with the given
// email and hands the reset mail to the queue. The mail leg is
// fire-and-forget: a broker failure is logged but the token stays valid
// and can still be delivered out of band.
func (h *AccountHandler) Forgot(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	token, err := utils.NewResetToken(h.Cfg.ResetTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue reset token failed"})
	}
	u, err := h.Users.SetResetToken(ctx, req.Email, utils.HashTokenRaw(token.Raw), token.Exp)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "this email isn't associated to any account"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open reset window failed"})
	}

	resetURL := strings.TrimRight(h.Cfg.PublicBaseURL, "/") + "/v1/account/reset/" + token.Raw
	ev := queue.PasswordResetRequestedEvent{
		Email:       u.Email,
		Name:        u.Name,
		ResetURL:    resetURL,
		ExpiresAt:   token.Exp.UTC().Format(time.RFC3339),
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue_publisher.PublishPasswordReset(ctx, ev); err != nil {
		log.Printf("forgot: reset mail publish failed for user %d: %v", u.ID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "a password reset link has been mailed to you"})
}

// ResetCheck reports whether a reset token is valid and unexpired. The
// front-end calls this before showing the new-password form.
func (h *AccountHandler) ResetCheck(c echo.Context) error {
	hash := utils.HashTokenRaw(strings.TrimSpace(c.Param("token")))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByResetToken(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "this token has expired or is not valid"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "token valid"})
}

// Reset consumes a valid token, sets the new password, revokes every
// existing session and returns a fresh token pair so the user is logged
// in right away.
func (h *AccountHandler) Reset(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validationMessage(err)})
	}
	if req.Password != req.PasswordConfirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "your passwords must match"})
	}
	hash := utils.HashTokenRaw(strings.TrimSpace(c.Param("token")))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.ConsumeResetToken(ctx, hash, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "this token has expired or is not valid"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset password failed"})
	}

	// old sessions must not survive a password reset
	_ = h.Tokens.RevokeAllForUser(ctx, uid)

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashTokenRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:    userPart{ID: u.ID, Email: u.Email, Name: u.Name, Gravatar: utils.Gravatar(u.Email)},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}
