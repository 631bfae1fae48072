package authentication

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	. "github.com/sproutcare/daylog/shared"

	"firebase.google.com/go/auth"
	"github.com/dgrijalva/jwt-go"
	"github.com/mitchellh/mapstructure"
)

type Authenticator struct {
	FirebaseClient interface {
		VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
		GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	} `inject:"daylogFirebaseClient"`
	Config *AppConfig `inject:""`
	Logger *Logger    `inject:""`
}

// testClaims is the payload of tokens accepted in test auth mode, signed
// with the shared HMAC secret instead of going through firebase.
type testClaims struct {
	UserId     string   `mapstructure:"userId"`
	DaycareId  string   `mapstructure:"daycareId"`
	LocationId string   `mapstructure:"locationId"`
	Roles      []string `mapstructure:"roles"`
}

func (f *Authenticator) Roles(next http.Handler, roles ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		claims, ok := req.Context().Value("claims").(map[string]interface{})
		if !ok || !f.hasRole(roles, claims) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, req)
	})
}

// Firebase verifies the bearer token and stores the caller's claims on
// the request context. Routes listed in excludePath stay public.
func (f *Authenticator) Firebase(next http.Handler, excludePath []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		for _, path := range excludePath {
			if req.RequestURI == path {
				next.ServeHTTP(w, req)
				return
			}
		}

		ctx := req.Context()
		authorizationHeader := req.Header.Get("authorization")

		if authorizationHeader == "" {
			HttpError(w, NewError("invalid authorization token"), http.StatusBadRequest)
			return
		}

		bearerToken := strings.Split(authorizationHeader, " ")
		if len(bearerToken) != 2 {
			HttpError(w, NewError("invalid authorization token"), http.StatusBadRequest)
			return
		}

		if f.Config.TestAuthMode {
			claims, err := f.decodeTestToken(bearerToken[1])
			if err != nil {
				HttpError(w, NewError(fmt.Sprintf("invalid authorization token: %s", err.Error())), http.StatusBadRequest)
				return
			}
			req = req.WithContext(context.WithValue(ctx, "claims", claims))
			next.ServeHTTP(w, req)
			return
		}

		token, err := f.FirebaseClient.VerifyIDToken(ctx, bearerToken[1])
		if err != nil {
			HttpError(w, NewError(fmt.Sprintf("invalid authorization token: %s", err.Error())), http.StatusBadRequest)
			return
		}

		firebaseUser, err := f.FirebaseClient.GetUser(ctx, token.UID)
		if err != nil {
			HttpError(w, NewError(fmt.Sprintf("failed to retrieve user from firebase: %s", err.Error())), http.StatusBadRequest)
			return
		}

		if !f.hasAtLeastOneRole(firebaseUser.CustomClaims) {
			HttpError(w, NewError("user has no registered role"), http.StatusForbidden)
			return
		}

		req = req.WithContext(context.WithValue(ctx, "claims", firebaseUser.CustomClaims))
		next.ServeHTTP(w, req)
	})
}

func (f *Authenticator) decodeTestToken(bearer string) (map[string]interface{}, error) {
	token, err := jwt.Parse(bearer, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(f.Config.TestAuthSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	decoded := testClaims{}
	if err := mapstructure.Decode(token.Claims.(jwt.MapClaims), &decoded); err != nil {
		return nil, err
	}

	claims := map[string]interface{}{
		"userId":            decoded.UserId,
		"daycareId":         decoded.DaycareId,
		"locationId":        decoded.LocationId,
		ROLE_ADMIN:          false,
		ROLE_OFFICE_MANAGER: false,
		ROLE_TEACHER:        false,
		ROLE_ADULT:          false,
	}
	for _, role := range decoded.Roles {
		claims[role] = true
	}
	return claims, nil
}

func (f *Authenticator) hasAtLeastOneRole(claims map[string]interface{}) bool {
	for _, role := range []string{ROLE_ADMIN, ROLE_OFFICE_MANAGER, ROLE_TEACHER, ROLE_ADULT} {
		if b, ok := claims[role].(bool); ok && b {
			return true
		}
	}
	return false
}

func (f *Authenticator) hasRole(roles []string, customClaim map[string]interface{}) bool {
	for _, role := range roles {
		if r, ok := customClaim[role]; ok {
			if b, ok := r.(bool); ok && b {
				return true
			}
		}
	}
	return false
}
