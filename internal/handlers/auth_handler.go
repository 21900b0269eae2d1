package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"campus-approvals/internal/auth"
	"campus-approvals/internal/middleware"
	"campus-approvals/internal/services"
)

const sessionMaxAge = 12 * 60 * 60

// AuthHandler handles the SSO login flow and session endpoints
type AuthHandler struct {
	provider *auth.OAuthProvider
	tokens   *auth.TokenManager
	sessions *auth.SessionStore
	identity *services.IdentityService
	secure   bool
	homeURL  string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(provider *auth.OAuthProvider, tokens *auth.TokenManager, sessions *auth.SessionStore, identity *services.IdentityService, secure bool, homeURL string) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		tokens:   tokens,
		sessions: sessions,
		identity: identity,
		secure:   secure,
		homeURL:  homeURL,
	}
}

// Login redirects the browser to the identity provider
// @Summary Start SSO login
// @Tags Auth
// @Success 302
// @Router /auth/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	state, err := h.tokens.IssueState()
	if err != nil {
		logrus.WithError(err).Error("Failed to issue login state token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}

	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// Callback completes the SSO login and establishes a session
// @Summary SSO callback
// @Tags Auth
// @Param code query string true "Authorization code"
// @Param state query string true "State token"
// @Success 302
// @Failure 401 {object} map[string]string
// @Router /auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		detail := c.Query("error_description")
		if detail == "" {
			detail = errParam
		}
		logrus.WithFields(logrus.Fields{
			"provider_error": errParam,
		}).Warn("Identity provider returned an error")
		c.JSON(http.StatusUnauthorized, gin.H{"error": detail})
		return
	}

	state := c.Query("state")
	if err := h.tokens.VerifyState(state); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired login state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	token, err := h.provider.Exchange(c.Request.Context(), code)
	if err != nil {
		logrus.WithError(err).Warn("Authorization code exchange failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login failed"})
		return
	}

	info, err := h.provider.FetchUserInfo(c.Request.Context(), token)
	if err != nil {
		logrus.WithError(err).Warn("Failed to fetch identity from provider")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login failed"})
		return
	}

	user, err := h.identity.Provision(c.Request.Context(), info.OID, info.Name, info.Email)
	if err != nil {
		if err == services.ErrUserDeactivated {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
			return
		}
		logrus.WithError(err).Error("Failed to provision user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}

	sessionToken, jti, err := h.tokens.IssueSession(user.ID, user.Email)
	if err != nil {
		logrus.WithError(err).Error("Failed to issue session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}
	if err := h.sessions.Save(c.Request.Context(), jti, user.ID.String()); err != nil {
		logrus.WithError(err).Warn("Failed to record session")
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, sessionToken, sessionMaxAge, "/", "", h.secure, true)
	c.Redirect(http.StatusFound, h.homeURL)
}

// Profile returns the authenticated user
// @Summary Get current user profile
// @Tags Auth
// @Produce json
// @Success 200 {object} models.User
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout revokes the session and clears the cookie
// @Summary Log out
// @Tags Auth
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	jti := c.GetString("session_jti")
	if user := middleware.CurrentUser(c); user != nil && jti != "" {
		if err := h.sessions.Revoke(c.Request.Context(), jti, user.ID.String()); err != nil {
			logrus.WithError(err).Warn("Failed to revoke session")
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
