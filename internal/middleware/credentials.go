package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/mail"
	"strings"

	"github.com/jayjaytrn/refund-desk/models"
	"go.uber.org/zap"
)

// ValidateCredentials checks the register/login body and rewrites it with the
// login trimmed and lower-cased, so that logins compare case-insensitively.
func ValidateCredentials(h http.Handler, sugar *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if contentType != "application/json" {
			sugar.Debugw("wrong content type", "contentType", contentType)
			reject(w, http.StatusBadRequest, "wrong content type")
			return
		}

		var credentials models.Credentials

		if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
			sugar.Debugw("error decoding credentials", "error", err)
			reject(w, http.StatusBadRequest, "error decoding credentials")
			return
		}

		credentials.Login = strings.ToLower(strings.TrimSpace(credentials.Login))
		credentials.Name = strings.TrimSpace(credentials.Name)
		if credentials.Login == "" || credentials.Password == "" {
			reject(w, http.StatusBadRequest, "login and password are required")
			return
		}
		if _, err := mail.ParseAddress(credentials.Login); err != nil {
			reject(w, http.StatusBadRequest, "login must be an email address")
			return
		}

		bodyBytes, err := json.Marshal(credentials)
		if err != nil {
			sugar.Errorw("error serializing credentials", "error", err)
			reject(w, http.StatusInternalServerError, "internal error")
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		r.ContentLength = int64(len(bodyBytes))

		h.ServeHTTP(w, r)
	})
}
