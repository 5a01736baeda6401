package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"koomia/api/internal/apperr"
	"koomia/api/internal/middleware"
	"koomia/api/internal/response"
	"koomia/api/internal/security"
	"koomia/api/internal/service"
)

const refreshCookie = "refreshToken"

var errRefreshRequired = apperr.New(apperr.Unauthorized, "Refresh token is required.")

type signupRequest struct {
	FirstName string `json:"firstName" binding:"required,max=15"`
	LastName  string `json:"lastName" binding:"required,max=15"`
	Email     string `json:"email" binding:"required,email"`
	Mobile    string `json:"mobile" binding:"required,mobile"`
	Password  string `json:"password" binding:"required,password"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Mobile:    req.Mobile,
		Password:  req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account.Info(), "Account created.")
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setRefreshCookie(c, tokens.RefreshToken)
	response.OK(c, tokens, "Logged in.")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh reads the token from the body, falling back to the cookie set at
// login.
func (h HandlerSet) Refresh(c *gin.Context) {
	var req refreshRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshCookie)
	}
	if token == "" {
		response.Error(c, errRefreshRequired)
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tokens, "Access token refreshed.")
}

func (h HandlerSet) RequestVerification(c *gin.Context, p middleware.Principal) {
	masked, err := h.auth.RequestVerification(c.Request.Context(), p.Account)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, fmt.Sprintf("A verification code was sent to %s.", masked))
}

type verifyEmailRequest struct {
	OTP string `json:"otp"`
}

func (h HandlerSet) VerifyEmail(c *gin.Context, p middleware.Principal) {
	var req verifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.auth.VerifyEmail(c.Request.Context(), p.Account, req.OTP)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, account.Info(), "Email verified.")
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, fmt.Sprintf("A password reset link was sent to %s.", service.MaskEmail(req.Email)))
}

type resetPasswordRequest struct {
	Password        string `json:"password" binding:"required,password"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "Password has been reset. Please log in again.")
}

func (h HandlerSet) Logout(c *gin.Context, p middleware.Principal) {
	if err := h.auth.Logout(c.Request.Context(), p.Account); err != nil {
		response.Error(c, err)
		return
	}
	h.setRefreshCookie(c, "")
	response.NoContent(c, "Logged out.")
}

func (h HandlerSet) setRefreshCookie(c *gin.Context, token string) {
	maxAge := 0
	if token == "" {
		maxAge = -1
	} else if h.tokens != nil {
		maxAge = int(h.tokens.TTL(security.PurposeRefresh).Seconds())
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, token, maxAge, "/api/v1/auth", "", h.secureCookies, true)
}
