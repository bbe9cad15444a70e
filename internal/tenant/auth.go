package tenant

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// AuthStatus is the outcome of a token check. The four cases are kept
// explicit so callers never have to infer "unknown tenant" from a generic
// verification error.
type AuthStatus int

const (
	AuthOK AuthStatus = iota
	AuthUnknownTenant
	AuthExpired
	AuthInvalid
)

func (s AuthStatus) String() string {
	switch s {
	case AuthOK:
		return "ok"
	case AuthUnknownTenant:
		return "unknown_tenant"
	case AuthExpired:
		return "expired"
	case AuthInvalid:
		return "invalid"
	}
	return "unknown"
}

// Claims are the JWT claims carried by Connect request tokens. The issuer
// is the tenant's clientKey; qsh is the Atlassian query string hash.
type Claims struct {
	QSH string `json:"qsh,omitempty"`
	jwt.RegisteredClaims
}

// AuthContext is the result of a successful authentication: the verified
// claims plus the tenant record they resolved to.
type AuthContext struct {
	ClientKey string
	Record    Record
	Claims    *Claims
}

// AuthResult is the tagged outcome of Authenticate. Context is non-nil
// only when Status is AuthOK.
type AuthResult struct {
	Status  AuthStatus
	Context *AuthContext
}

// Authenticate validates a Connect JWT in two steps. The issuer claim is
// first read without signature verification and used purely as a lookup
// key into the registry; a tenant with no record always fails, whatever
// the signature. Only then is the token verified against that tenant's
// shared secret with HS256.
func (r *Registry) Authenticate(tokenString string) AuthResult {
	parser := jwt.NewParser()

	unverified := &Claims{}
	if _, _, err := parser.ParseUnverified(tokenString, unverified); err != nil {
		return AuthResult{Status: AuthInvalid}
	}

	clientKey := unverified.Issuer
	rec, ok := r.Lookup(clientKey)
	if !ok {
		return AuthResult{Status: AuthUnknownTenant}
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(rec.SharedSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AuthResult{Status: AuthExpired}
		}
		return AuthResult{Status: AuthInvalid}
	}
	if !token.Valid {
		return AuthResult{Status: AuthInvalid}
	}

	return AuthResult{
		Status: AuthOK,
		Context: &AuthContext{
			ClientKey: clientKey,
			Record:    rec,
			Claims:    claims,
		},
	}
}
