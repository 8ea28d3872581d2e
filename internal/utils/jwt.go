package utils // package utils provides helpers for issuing member access tokens

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// Roles carried by the "role" claim.
const (
    RoleMember = "MEMBER"
    RoleLead   = "LEAD"
)

// AccessToken is a signed JWT along with its expiry.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// ErrInvalidRole is returned when a token is requested for an unknown role.
var ErrInvalidRole = errors.New("role must be MEMBER or LEAD")

// NewAccessToken signs an HS256 JWT for a chat-platform member.  sub is
// the platform user id and name the display name shown in the queue
// table.  The gateway that fronts the chat platform mints these tokens;
// the zonectl token command does the same for local testing.
func NewAccessToken(secret, userID, name, role string, ttl time.Duration) (AccessToken, error) {
    if role != RoleMember && role != RoleLead {
        return AccessToken{}, ErrInvalidRole
    }
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sub":  userID,
        "name": name,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}
