package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/pkg/auth"
	"github.com/rs/zerolog"
)

const (
	sessionTokenKey = "token"
	identityKey     = "identity"
)

// Flash levels
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

var flashLevels = []string{FlashSuccess, FlashInfo, FlashError}

// SessionConfig configures the session cookie
type SessionConfig struct {
	Name   string
	Secret string
	MaxAge int
	Secure bool
}

// Sessions installs the cookie backed session store
func Sessions(cfg SessionConfig) gin.HandlerFunc {
	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(cfg.Name, store)
}

// AuthMiddleware restores the logged in identity and guards pages by role
type AuthMiddleware struct {
	authService services.AuthService
	logger      zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authService services.AuthService, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

// LoadIdentity reads the session token and puts the identity on the request.
// A stale or invalid token is dropped from the session.
func (m *AuthMiddleware) LoadIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(sessionTokenKey).(string)
		if token == "" {
			c.Next()
			return
		}

		id, err := m.authService.Session(c.Request.Context(), token)
		if err != nil {
			m.logger.Debug().Err(err).Msg("Discarding session token")
			session.Delete(sessionTokenKey)
			_ = session.Save()
			c.Next()
			return
		}

		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// LoginRequired redirects anonymous visitors to loginURL with a next parameter
func (m *AuthMiddleware) LoginRequired(kind auth.Kind, loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id == nil || id.Kind != kind {
			c.Redirect(http.StatusFound, loginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// StaffRequired guards admin pages. Non-staff visitors go to loginURL.
func (m *AuthMiddleware) StaffRequired(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			c.Redirect(http.StatusFound, loginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// StaffAPI guards the admin JSON API
func (m *AuthMiddleware) StaffAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id == nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithSeverity(dto.ErrorSeverityWarning)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}
		if !id.IsStaff {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithSeverity(dto.ErrorSeverityWarning).
				WithDetails("You don't have sufficient permissions for this operation")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the logged in identity, or nil
func CurrentIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}

// IsStaff reports whether the visitor is a logged in staff voter
func IsStaff(c *gin.Context) bool {
	id := CurrentIdentity(c)
	return id != nil && id.Kind == auth.KindVoter && id.IsStaff
}

// StartSession stores a signed token for id in the session
func StartSession(c *gin.Context, id *auth.Identity, token string) error {
	session := sessions.Default(c)
	session.Set(sessionTokenKey, token)
	c.Set(identityKey, id)
	return session.Save()
}

// EndSession forgets the logged in identity. Pending flashes survive.
func EndSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Delete(sessionTokenKey)
	c.Set(identityKey, (*auth.Identity)(nil))
	return session.Save()
}

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Level   string
	Message string
}

// AddFlash queues a message for the next page
func AddFlash(c *gin.Context, level, message string) {
	session := sessions.Default(c)
	session.AddFlash(message, level)
	_ = session.Save()
}

// Flashes pops every queued message
func Flashes(c *gin.Context) []Flash {
	session := sessions.Default(c)
	var out []Flash
	for _, level := range flashLevels {
		for _, f := range session.Flashes(level) {
			if msg, ok := f.(string); ok {
				out = append(out, Flash{Level: level, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		_ = session.Save()
	}
	return out
}
