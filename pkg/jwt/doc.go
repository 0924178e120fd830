// Package jwt issues and verifies the RS256 access tokens used by the
// recipe book API.
//
// Tokens carry the user ID and username of the authenticated user. The
// username doubles as the user identifier used for naming uploaded images.
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "./keys/private.pem",
//	    Issuer:         "recipebook",
//	    ExpirationMins: 60,
//	})
//	token, err := svc.Sign(jwt.Claims{UserID: user.ID, Username: user.Username})
//	claims, err := svc.Validate(token)
//
// Validation failures are reported as ErrTokenExpired, ErrTokenNotYetValid,
// ErrInvalidSignature or ErrInvalidToken.
package jwt
