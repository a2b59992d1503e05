package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mysnackdev/mysnack-storefront/internal/domain"
	"github.com/mysnackdev/mysnack-storefront/internal/repository/devicestate"
)

// prefKeys maps URL names to device state keys. Anything else is rejected so
// the prefs endpoint cannot be used to poke at cart or order state.
var prefKeys = map[string]string{
	"theme":              devicestate.KeyTheme,
	"onboarding":         devicestate.KeyOnboardingSeen,
	"registration-draft": devicestate.KeyRegistrationDraft,
}

func getPrefHandler(prefs PrefsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := prefKeys[c.Param("key")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown preference"})
			return
		}
		value, err := prefs.Get(c.Request.Context(), c.GetString(ctxDeviceID), key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "preference not set"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read preference"})
			return
		}
		c.Data(http.StatusOK, "application/json", value)
	}
}

func setPrefHandler(prefs PrefsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("key")
		key, ok := prefKeys[name]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown preference"})
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 64<<10))
		if err != nil || !json.Valid(body) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body must be valid JSON"})
			return
		}
		if name == "registration-draft" {
			if msg := validateRegistrationDraft(body); msg != "" {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
				return
			}
		}
		if err := prefs.Set(c.Request.Context(), c.GetString(ctxDeviceID), key, body); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save preference"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func deletePrefHandler(prefs PrefsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := prefKeys[c.Param("key")]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown preference"})
			return
		}
		if err := prefs.Delete(c.Request.Context(), c.GetString(ctxDeviceID), key); err != nil && !errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete preference"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type registrationDraft struct {
	Nome             string `json:"nome"`
	Email            string `json:"email"`
	Telefone         string `json:"telefone"`
	Senha            string `json:"senha"`
	ConfirmacaoSenha string `json:"confirmacaoSenha"`
}

// validateRegistrationDraft blocks invalid drafts with an inline message.
// Credentials are validated only, never stored: the senha fields are
// stripped before the draft gets here by the caller, or rejected below.
func validateRegistrationDraft(body []byte) string {
	var draft registrationDraft
	if err := json.Unmarshal(body, &draft); err != nil {
		return "invalid registration draft"
	}
	var missing []string
	if strings.TrimSpace(draft.Nome) == "" {
		missing = append(missing, "nome")
	}
	if strings.TrimSpace(draft.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return "required fields missing: " + strings.Join(missing, ", ")
	}
	if draft.Senha != draft.ConfirmacaoSenha {
		return "passwords do not match"
	}
	if draft.Senha != "" {
		return "registration draft must not carry credentials"
	}
	return ""
}
