package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

// Context keys set by RequireAuth.
const (
	ContextUserID   = "user_id"
	ContextClient   = "client"
	ContextAuthMode = "auth_mode"
)

// AuthMode tells handlers how the caller authenticated.
type AuthMode string

const (
	// AuthModeOAuth callers act as the token's subject.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeAPIKey callers are trusted servers that name the user per request.
	AuthModeAPIKey AuthMode = "api_key"
)

const apiKeyHeader = "X-API-Key"

// Claims is the access token payload: the user in sub and the issuing client.
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret  []byte
	clients repository.ClientRepository
	logger  *zap.Logger
}

func NewAuthMiddleware(secret string, clients repository.ClientRepository, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{secret: []byte(secret), clients: clients, logger: logger}
}

// RequireAuth accepts either a bearer access token or a client API key.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var err error
		if header := c.GetHeader("Authorization"); header != "" {
			err = m.authenticateBearer(c, header)
		} else if key := c.GetHeader(apiKeyHeader); key != "" {
			err = m.authenticateAPIKey(c, key)
		} else {
			err = errors.New("missing credentials")
		}

		if err != nil {
			m.logger.Debug("authentication failed", zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
				"code":  "unauthorized",
			})
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticateBearer(c *gin.Context, header string) error {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return errors.New("malformed authorization header")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" || claims.ClientID == "" {
		return errors.New("token missing sub or client_id")
	}

	client, err := m.clients.GetByID(c.Request.Context(), claims.ClientID)
	if err != nil {
		return fmt.Errorf("load client: %w", err)
	}

	c.Set(ContextUserID, claims.Subject)
	c.Set(ContextClient, client)
	c.Set(ContextAuthMode, AuthModeOAuth)
	return nil
}

// authenticateAPIKey checks keys of the form "<client id>.<secret>" against
// the client's bcrypt hash.
func (m *AuthMiddleware) authenticateAPIKey(c *gin.Context, key string) error {
	clientID, secret, ok := strings.Cut(key, ".")
	if !ok || clientID == "" || secret == "" {
		return errors.New("malformed api key")
	}

	client, err := m.clients.GetByID(c.Request.Context(), clientID)
	if err != nil {
		return fmt.Errorf("load client: %w", err)
	}
	if client.APIKeyHash == "" {
		return errors.New("client has no api key")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.APIKeyHash), []byte(secret)); err != nil {
		return fmt.Errorf("api key mismatch: %w", err)
	}

	c.Set(ContextClient, client)
	c.Set(ContextAuthMode, AuthModeAPIKey)
	return nil
}

// IssueToken signs an access token. Used by tooling and tests; token
// issuance for end users lives with the identity provider.
func IssueToken(secret, userID, clientID string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = userID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{ClientID: clientID, RegisteredClaims: claims})
	return token.SignedString([]byte(secret))
}

// HashAPIKey returns the bcrypt hash stored for a client secret.
func HashAPIKey(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	Mode   AuthMode
	UserID string
	Client *domain.Client
}

// CallerFrom returns the identity set by RequireAuth.
func CallerFrom(c *gin.Context) (*Caller, bool) {
	client, ok := c.Get(ContextClient)
	if !ok {
		return nil, false
	}
	caller := &Caller{Client: client.(*domain.Client)}
	if mode, ok := c.Get(ContextAuthMode); ok {
		caller.Mode = mode.(AuthMode)
	}
	caller.UserID = c.GetString(ContextUserID)
	return caller, true
}
