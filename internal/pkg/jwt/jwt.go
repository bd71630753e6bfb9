package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	ClaimEmployeeID = "employee_id"
	ClaimRole       = "role"
	ClaimType       = "type"

	tokenTypeAccess = "access"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Service interface {
	GenerateAccessToken(employeeID string, role employee.Role) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	expiration, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration %q: %w", accessTokenExpirationTime, err)
	}
	return &JWTService{
		accessTokenExpirationTime: expiration,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                       time.Now,
	}, nil
}

func (j *JWTService) GenerateAccessToken(employeeID string, role employee.Role) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenExpirationTime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		ClaimEmployeeID: employeeID,
		ClaimRole:       string(role),
		ClaimType:       tokenTypeAccess,
		"exp":           expiresAt,
	})
	return tokenString, expiresAt, err
}

// ActorFromClaims rebuilds the caller identity from verified access-token claims.
func ActorFromClaims(claims map[string]interface{}) (employee.Actor, error) {
	if t, _ := claims[ClaimType].(string); t != tokenTypeAccess {
		return employee.Actor{}, fmt.Errorf("%w: unexpected token type %q", ErrInvalidToken, t)
	}

	employeeID, _ := claims[ClaimEmployeeID].(string)
	role, _ := claims[ClaimRole].(string)

	actor := employee.Actor{EmployeeID: employeeID, Role: employee.Role(role)}
	if err := actor.Validate(); err != nil {
		return employee.Actor{}, err
	}
	return actor, nil
}
