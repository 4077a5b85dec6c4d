package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suicert/suicert/internal/chain"
	"github.com/suicert/suicert/internal/config"
	"github.com/suicert/suicert/internal/oauth"
	"github.com/suicert/suicert/internal/sponsor"
	"github.com/suicert/suicert/internal/zklogin"
)

// SponsorExecutor is satisfied by sponsor.Executor.
// Decoupled here so handler tests can use a mock.
type SponsorExecutor interface {
	Execute(ctx context.Context, beneficiary string, build func() chain.MoveCall, description string) (*sponsor.Outcome, error)
}

// Handler wires the login and issuance routes onto a Gin engine.
type Handler struct {
	creds     *zklogin.Manager
	redirects *oauth.RedirectBuilder
	exec      SponsorExecutor
	cfg       config.SponsorConfig
	log       *zap.Logger
}

func NewHandler(creds *zklogin.Manager, redirects *oauth.RedirectBuilder, exec SponsorExecutor, cfg config.SponsorConfig, log *zap.Logger) *Handler {
	return &Handler{creds: creds, redirects: redirects, exec: exec, cfg: cfg, log: log}
}

// Register mounts all routes.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	v1 := r.Group("/v1")
	v1.GET("/auth/url", h.handleAuthURL)
	v1.POST("/auth/callback", h.handleCallback)
	v1.POST("/auth/logout", h.handleLogout)

	priv := v1.Group("", h.operatorAuth)
	priv.POST("/templates", h.handleCreateTemplate)
	priv.POST("/certificates", h.handleIssueCertificate)
}

// operatorAuth guards the privileged issuance routes with a bearer token.
func (h *Handler) operatorAuth(c *gin.Context) {
	if h.cfg.OperatorToken == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "operator access not configured"})
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.OperatorToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid operator token"})
		return
	}
	c.Next()
}

// ── Login flow ───────────────────────────────────────────────────────────────

func (h *Handler) handleAuthURL(c *gin.Context) {
	session := c.Query("session")
	provider := oauth.Provider(c.Query("provider"))
	if session == "" || provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session and provider are required"})
		return
	}

	cred, err := h.creds.GetOrCreate(c.Request.Context(), session)
	if err != nil {
		h.writeError(c, err)
		return
	}
	nonce, err := zklogin.BindNonce(cred)
	if err != nil {
		h.writeError(c, err)
		return
	}
	url, err := h.redirects.BuildURL(provider, nonce)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "maxEpoch": cred.MaxEpoch})
}

type callbackRequest struct {
	Session string `json:"session" binding:"required"`
	IDToken string `json:"idToken" binding:"required"`
}

func (h *Handler) handleCallback(c *gin.Context) {
	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session and idToken are required"})
		return
	}

	// Read-only lookup: the id_token can only match the credential that was
	// live when the login redirect was issued, so an expired or missing one
	// must not be silently replaced here.
	cred, err := h.creds.Current(c.Request.Context(), req.Session)
	if errors.Is(err, zklogin.ErrNoCredential) || errors.Is(err, zklogin.ErrCredentialExpired) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, restart login"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	nonce, err := zklogin.BindNonce(cred)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := oauth.VerifyNonce(req.IDToken, nonce); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	addr, err := cred.Address()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr, "maxEpoch": cred.MaxEpoch})
}

func (h *Handler) handleLogout(c *gin.Context) {
	var req struct {
		Session string `json:"session" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session is required"})
		return
	}
	if err := h.creds.SignOut(c.Request.Context(), req.Session); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}

// ── Privileged issuance ──────────────────────────────────────────────────────

type createTemplateRequest struct {
	Beneficiary string `json:"beneficiary" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *Handler) handleCreateTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.exec.Execute(c.Request.Context(), req.Beneficiary, func() chain.MoveCall {
		return chain.MoveCall{
			Package:  h.cfg.PackageID,
			Module:   "certificates",
			Function: "create_template",
			Args:     []any{h.cfg.RegistryID, req.Name, req.Description},
		}
	}, "create template")
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := gin.H{"digest": out.Digest, "gasUsed": out.GasUsed}
	if len(out.CreatedObjectIDs) > 0 {
		resp["templateId"] = out.CreatedObjectIDs[0]
	}
	c.JSON(http.StatusOK, resp)
}

type issueCertificateRequest struct {
	Beneficiary string `json:"beneficiary" binding:"required"`
	TemplateID  string `json:"templateId" binding:"required"`
	Recipient   string `json:"recipient" binding:"required"`
}

func (h *Handler) handleIssueCertificate(c *gin.Context) {
	var req issueCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.exec.Execute(c.Request.Context(), req.Beneficiary, func() chain.MoveCall {
		return chain.MoveCall{
			Package:  h.cfg.PackageID,
			Module:   "certificates",
			Function: "issue",
			Args:     []any{h.cfg.RegistryID, req.TemplateID, req.Recipient},
		}
	}, "issue certificate")
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := gin.H{"digest": out.Digest, "gasUsed": out.GasUsed}
	if len(out.CreatedObjectIDs) > 0 {
		resp["certificateId"] = out.CreatedObjectIDs[0]
	}
	c.JSON(http.StatusOK, resp)
}

// ── Error mapping ────────────────────────────────────────────────────────────

// writeError translates the typed error surface into HTTP responses.
// Configuration-class failures are logged verbatim but reported generically:
// end users never see key material or parsing detail.
func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		ibe *sponsor.InsufficientBalanceError
		ige *sponsor.InsufficientGasError
		tfe *sponsor.TxFailedError
		ce  *sponsor.ConfigError
		kde *sponsor.KeyDecodeError
		ne  *sponsor.NetworkError
	)
	switch {
	case errors.As(err, &ibe):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":     "insufficient balance",
			"address":   ibe.Address,
			"required":  ibe.Required,
			"found":     ibe.Found,
			"shortfall": ibe.Shortfall(),
			"action":    "top up your balance",
		})
	case errors.As(err, &ige):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "sponsor out of gas",
			"shortfall": ige.Shortfall(),
			"action":    "contact admin",
		})
	case errors.As(err, &tfe):
		resp := gin.H{"error": "transaction failed", "digest": tfe.Digest}
		if tfe.AbortCode != nil {
			resp["reason"] = tfe.Message
		}
		c.JSON(http.StatusUnprocessableEntity, resp)
	case errors.As(err, &ce), errors.As(err, &kde):
		h.log.Error("configuration error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "service misconfigured, contact support"})
	case errors.As(err, &ne), errors.Is(err, chain.ErrChainUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chain unavailable, try again"})
	case errors.Is(err, oauth.ErrUnsupportedProvider):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
