package recordapi

import (
	"context"
	"net/http"

	"github.com/dandantas/pimpush/internal/model"
	"github.com/dghubble/oauth1"
)

// oauth1Client returns a client that signs each request with token-based
// OAuth 1.0a (HMAC-SHA256) on top of base's transport
func oauth1Client(ctx context.Context, base *http.Client, auth model.Auth) *http.Client {
	config := &oauth1.Config{
		ConsumerKey:    auth.ConsumerKey,
		ConsumerSecret: auth.ConsumerSecret,
		Realm:          auth.Realm,
		Signer:         &oauth1.HMAC256Signer{ConsumerSecret: auth.ConsumerSecret},
	}
	token := oauth1.NewToken(auth.TokenID, auth.TokenSecret)

	signed := config.Client(context.WithValue(ctx, oauth1.HTTPClient, base), token)
	signed.Timeout = base.Timeout
	return signed
}
