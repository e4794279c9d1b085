package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

var (
	ErrTokenMismatch = errors.New("CSRF token mismatch", errors.CategoryAuthz).
		WithTextCode("CSRF_MISMATCH").
		WithCode(errors.CodeForbidden)
	ErrTokenMissing = errors.New("CSRF token missing", errors.CategoryBadInput).
		WithTextCode("CSRF_MISSING").
		WithCode(errors.CodeBadRequest)
	ErrTokenExpired = errors.New("CSRF token expired", errors.CategoryAuthz).
		WithTextCode("CSRF_EXPIRED").
		WithCode(errors.CodeForbidden)
)

// DefaultTokenLength is the nonce length in bytes
const DefaultTokenLength = 32

// DefaultContextKey is the Locals key holding the token for the current request
const DefaultContextKey = "csrf_token"

// DefaultFormFieldName is the hidden input carrying the token
const DefaultFormFieldName = "_token"

// DefaultHeaderName is the header carrying the token for scripted requests
const DefaultHeaderName = "X-CSRF-Token"

// FieldKey is the Locals key holding a ready to render hidden input
const FieldKey = "csrf_field"

// DefaultSeedCookieName is the cookie carrying the per browser seed that
// binds tokens of anonymous visitors
const DefaultSeedCookieName = "_csrf_seed"

const seedLocalsKey = "csrf_seed"

// Config defines the configuration for CSRF middleware
type Config struct {
	// Skip defines a function to skip middleware
	Skip func(router.Context) bool

	TokenLength   int
	ContextKey    string
	FormFieldName string
	HeaderName    string

	// TokenLookup defines where to look for the token
	// Format: "form:_token,header:X-CSRF-Token"
	TokenLookup string

	ErrorHandler   router.ErrorHandler
	SuccessHandler router.HandlerFunc

	// SafeMethods are never validated
	SafeMethods []string

	// Expiration bounds the token age, zero disables the check
	Expiration time.Duration

	// SecureKey signs the tokens, at least 32 bytes. A random key is used
	// when empty, which does not survive restarts.
	SecureKey []byte

	// SessionKey binds a token to the requester. The default uses the
	// session_id or user_id Locals and falls back to the seed cookie.
	SessionKey func(router.Context) string

	SeedCookieName string
	SecureCookie   bool

	Now func() time.Time
}

// New creates a new CSRF middleware. Tokens are stateless: an HMAC over a
// timestamp, a nonce and the session key.
func New(config ...Config) router.MiddlewareFunc {
	cfg := configDefault(config...)
	extractors := getExtractors(cfg.TokenLookup, cfg.FormFieldName, cfg.HeaderName)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return ctx.Next()
			}

			if err := ensureSeed(ctx, cfg); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			token, err := generateToken(ctx, cfg)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, token)
			ctx.Locals(FieldKey, HiddenField(cfg.FormFieldName, token))

			if slices.Contains(cfg.SafeMethods, strings.ToUpper(ctx.Method())) {
				return cfg.SuccessHandler(ctx)
			}

			received := extractToken(ctx, extractors)
			if received == "" {
				return cfg.ErrorHandler(ctx, ErrTokenMissing)
			}

			if err := validateToken(ctx, cfg, received); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// HiddenField renders the form input carrying token
func HiddenField(name, token string) string {
	return `<input type="hidden" name="` + name + `" value="` + token + `">`
}

// ensureSeed makes the seed cookie value available to the current request,
// issuing a new one when the browser has none.
func ensureSeed(ctx router.Context, cfg Config) error {
	if seed := ctx.Cookies(cfg.SeedCookieName); seed != "" {
		ctx.Locals(seedLocalsKey, seed)
		return nil
	}

	raw := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to generate CSRF seed")
	}

	seed := hex.EncodeToString(raw)
	ctx.Cookie(&router.Cookie{
		Name:     cfg.SeedCookieName,
		Value:    seed,
		Path:     "/",
		HTTPOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: router.CookieSameSiteLaxMode,
	})
	ctx.Locals(seedLocalsKey, seed)
	return nil
}

func generateToken(ctx router.Context, cfg Config) (string, error) {
	nonce := make([]byte, cfg.TokenLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "unable to generate CSRF nonce")
	}

	payload := fmt.Sprintf("%d:%s:%s", cfg.Now().UTC().Unix(), hex.EncodeToString(nonce), cfg.SessionKey(ctx))
	signature := sign(cfg.SecureKey, payload)

	token := payload + ":" + hex.EncodeToString(signature)
	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

func validateToken(ctx router.Context, cfg Config, token string) error {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrTokenMismatch
	}

	parts := strings.Split(string(decoded), ":")
	if len(parts) != 4 {
		return ErrTokenMismatch
	}

	timestamp, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ErrTokenMismatch
	}

	signature, err := hex.DecodeString(parts[3])
	if err != nil {
		return ErrTokenMismatch
	}

	if !hmac.Equal(signature, sign(cfg.SecureKey, strings.Join(parts[:3], ":"))) {
		return ErrTokenMismatch
	}

	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(cfg.SessionKey(ctx))) != 1 {
		return ErrTokenMismatch
	}

	if cfg.Expiration > 0 {
		expiresAt := time.Unix(timestamp, 0).Add(cfg.Expiration)
		if cfg.Now().UTC().After(expiresAt) {
			return ErrTokenExpired
		}
	}

	return nil
}

func sign(key []byte, payload string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

type tokenExtractor func(router.Context) string

func extractToken(ctx router.Context, extractors []tokenExtractor) string {
	for _, extractor := range extractors {
		if token := extractor(ctx); token != "" {
			return token
		}
	}
	return ""
}

func getExtractors(tokenLookup, formField, header string) []tokenExtractor {
	if tokenLookup == "" {
		return []tokenExtractor{fromForm(formField), fromHeader(header)}
	}

	var extractors []tokenExtractor
	for _, part := range strings.Split(tokenLookup, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "form:"):
			extractors = append(extractors, fromForm(strings.TrimPrefix(part, "form:")))
		case strings.HasPrefix(part, "header:"):
			extractors = append(extractors, fromHeader(strings.TrimPrefix(part, "header:")))
		}
	}
	return extractors
}

func fromForm(field string) tokenExtractor {
	return func(ctx router.Context) string {
		return ctx.FormValue(field)
	}
}

func fromHeader(header string) tokenExtractor {
	return func(ctx router.Context) string {
		return ctx.Header(header)
	}
}

func defaultSessionKey(ctx router.Context) string {
	if id, ok := ctx.Locals("session_id").(string); ok && id != "" {
		return "csrf_" + id
	}

	if id, ok := ctx.Locals("user_id").(string); ok && id != "" {
		return "csrf_user_" + id
	}

	seed, _ := ctx.Locals(seedLocalsKey).(string)
	return "csrf_seed_" + seed
}

func configDefault(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultTokenLength
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.FormFieldName == "" {
		cfg.FormFieldName = DefaultFormFieldName
	}

	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultHeaderName
	}

	if cfg.SafeMethods == nil {
		cfg.SafeMethods = []string{string(router.GET), string(router.HEAD), "OPTIONS", "TRACE"}
	}

	if cfg.Expiration == 0 {
		cfg.Expiration = 24 * time.Hour
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.SeedCookieName == "" {
		cfg.SeedCookieName = DefaultSeedCookieName
	}

	if cfg.SessionKey == nil {
		cfg.SessionKey = defaultSessionKey
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	cfg.SecureKey = initializeSecureKey(cfg.SecureKey)

	return cfg
}

func defaultErrorHandler(ctx router.Context, err error) error {
	switch {
	case errors.Is(err, ErrTokenMissing):
		return ctx.Status(router.StatusBadRequest).SendString("CSRF token missing")
	case errors.Is(err, ErrTokenMismatch):
		return ctx.Status(router.StatusForbidden).SendString("CSRF token mismatch")
	case errors.Is(err, ErrTokenExpired):
		return ctx.Status(router.StatusForbidden).SendString("CSRF token expired")
	default:
		return ctx.Status(router.StatusInternalServerError).SendString("CSRF validation error")
	}
}

func initializeSecureKey(current []byte) []byte {
	if len(current) > 0 {
		if len(current) < 32 {
			panic(errors.New("csrf: secure key must be at least 32 bytes", errors.CategoryValidation).
				WithMetadata(map[string]any{"length": len(current)}))
		}
		return current
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		panic(errors.Wrap(err, errors.CategoryInternal, "csrf: unable to initialize secure key"))
	}
	return key
}
