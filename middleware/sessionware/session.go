package sessionware

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

var (
	defaultTokenLookup = "cookie:auth_token"

	// ErrSessionMissingOrMalformed is returned when no token can be extracted
	ErrSessionMissingOrMalformed = errors.New("missing or malformed session", errors.CategoryAuth).
		WithTextCode("SESSION_MISSING").
		WithCode(errors.CodeBadRequest)
)

// Resolver turns a raw token into the value stored in Locals
type Resolver func(token string) (any, error)

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	Resolver       Resolver
	ContextKey     string
	TokenLookup    string
	AuthScheme     string
	// Optional lets requests without a valid session through untouched
	Optional bool
}

// New returns a middleware that resolves the request token into Locals.
// The chain continues through ctx.Next, so SuccessHandler must call it.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		extractors := GetExtractors(cfg.TokenLookup, cfg.AuthScheme)

		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, err := ExtractRawToken(ctx, extractors)
			if err != nil {
				if cfg.Optional {
					return ctx.Next()
				}
				return cfg.ErrorHandler(ctx, err)
			}

			session, err := cfg.Resolver(raw)
			if err != nil {
				if cfg.Optional {
					return ctx.Next()
				}
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, session)

			return cfg.SuccessHandler(ctx)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			if errors.Is(err, ErrSessionMissingOrMalformed) {
				return ctx.Status(router.StatusBadRequest).SendString(ErrSessionMissingOrMalformed.Message)
			}
			return ctx.Status(router.StatusUnauthorized).SendString("Invalid or expired session")
		}
	}

	if cfg.Resolver == nil {
		panic("AUTH: session middleware configuration: Resolver is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// ExtractRawToken returns the first token any extractor finds
func ExtractRawToken(ctx router.Context, extractors []Extractor) (string, error) {
	var err error = ErrSessionMissingOrMalformed
	for _, extractor := range extractors {
		raw, xerr := extractor(ctx)
		if raw != "" && xerr == nil {
			return raw, nil
		}
		err = xerr
	}
	return "", err
}

type Extractor func(ctx router.Context) (string, error)

// GetExtractors parses lookups like "cookie:auth_token,header:Authorization"
func GetExtractors(tokenLookup string, authScheme string) []Extractor {
	extractors := make([]Extractor, 0)

	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		name := strings.TrimSpace(parts[1])
		switch strings.TrimSpace(parts[0]) {
		case "header":
			extractors = append(extractors, fromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, fromQuery(name))
		case "cookie":
			extractors = append(extractors, fromCookie(name))
		}
	}

	return extractors
}

func fromHeader(header string, authScheme string) Extractor {
	authScheme = strings.TrimSpace(authScheme)
	return func(ctx router.Context) (string, error) {
		a := ctx.Header(header)
		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrSessionMissingOrMalformed
	}
}

func fromQuery(param string) Extractor {
	return func(ctx router.Context) (string, error) {
		token := ctx.Query(param)
		if token == "" {
			return "", ErrSessionMissingOrMalformed
		}
		return token, nil
	}
}

func fromCookie(name string) Extractor {
	return func(ctx router.Context) (string, error) {
		token := ctx.Cookies(name)
		if token == "" {
			return "", ErrSessionMissingOrMalformed
		}
		return token, nil
	}
}
