package betfair

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultLoginURL = "https://identitysso-cert.betfair.com/api/certlogin"
	sessionValidity = 8 * time.Hour
	loginTimeout    = 15 * time.Second
)

// Credentials holds the exchange account and the certificate material
// the identity endpoint requires. Cert and Key are PEM contents.
type Credentials struct {
	Username string
	Password string
	AppKey   string
	CertPEM  string
	KeyPEM   string
}

// session is an immutable token with its expiry. Superseded, never
// mutated, when a new login succeeds.
type session struct {
	token      string
	validUntil time.Time
}

// SessionManager performs certificate logins and caches the resulting
// token for its 8-hour validity window. A failed login leaves the
// cached session untouched, so a transient failure does not invalidate
// an otherwise-valid token.
type SessionManager struct {
	creds    Credentials
	loginURL string
	logger   *logrus.Logger

	mu      sync.Mutex
	current *session
	client  *http.Client
}

// NewSessionManager creates a session manager. The TLS client identity
// is built lazily on first login so construction never fails.
func NewSessionManager(creds Credentials, logger *logrus.Logger) *SessionManager {
	return &SessionManager{
		creds:    creds,
		loginURL: defaultLoginURL,
		logger:   logger,
	}
}

type loginResponse struct {
	SessionToken string `json:"sessionToken"`
	LoginStatus  string `json:"loginStatus"`
}

// Token returns the cached session token, logging in first when no
// session exists or the cached one has expired.
func (m *SessionManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && time.Now().Before(m.current.validUntil) {
		return m.current.token, nil
	}

	token, err := m.login(ctx)
	if err != nil {
		return "", err
	}

	m.current = &session{token: token, validUntil: time.Now().Add(sessionValidity)}
	m.logger.Info("betfair session established via certificate login")
	return token, nil
}

func (m *SessionManager) login(ctx context.Context) (string, error) {
	if m.creds.CertPEM == "" || m.creds.KeyPEM == "" {
		return "", &AuthError{Reason: "certificate material not configured"}
	}

	if m.client == nil {
		cert, err := tls.X509KeyPair(
			[]byte(normalizePEM(m.creds.CertPEM)),
			[]byte(normalizePEM(m.creds.KeyPEM)),
		)
		if err != nil {
			return "", &AuthError{Reason: "invalid certificate material", Err: err}
		}
		m.client = &http.Client{
			Timeout: loginTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
			},
		}
	}

	form := url.Values{}
	form.Set("username", m.creds.Username)
	form.Set("password", m.creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Reason: "create login request", Err: err}
	}
	req.Header.Set("X-Application", m.creds.AppKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", &AuthError{Reason: "login request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Reason: "read login response", Err: err}
	}

	var login loginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		return "", &AuthError{Reason: fmt.Sprintf("non-JSON login response (HTTP %d): %s", resp.StatusCode, truncate(body, 200))}
	}
	if login.LoginStatus != "SUCCESS" {
		status := login.LoginStatus
		if status == "" {
			status = "unknown"
		}
		return "", &AuthError{Reason: "login status " + status}
	}

	return login.SessionToken, nil
}

// normalizePEM undoes the escaped newlines that single-line environment
// variables carry.
func normalizePEM(pem string) string {
	return strings.ReplaceAll(pem, `\n`, "\n")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
