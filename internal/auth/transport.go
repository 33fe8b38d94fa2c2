package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTokenURL is the Bitbucket Cloud OAuth token endpoint.
const DefaultTokenURL = "https://bitbucket.org/site/oauth2/access_token"

// Apply attaches the descriptor to every request sent by client.
//
// Basic sets the client-wide basic auth header and removes an oauth2
// transport installed by an earlier OAuth descriptor. OAuth exchanges the consumer
// key/secret for a bearer token with the client credentials grant at tokenURL
// and installs an oauth2 transport on top of the client's current transport.
// Apply must run after the transport has been configured (proxy, TLS).
func Apply(ctx context.Context, client *resty.Client, desc AuthDescriptor, tokenURL string) error {
	switch d := desc.(type) {
	case Basic:
		if previous, ok := client.GetClient().Transport.(*oauth2.Transport); ok {
			client.SetTransport(baseTransport(previous))
		}
		client.SetBasicAuth(d.Username, d.Token)
		return nil
	case OAuth:
		if tokenURL == "" {
			tokenURL = DefaultTokenURL
		}
		base := baseTransport(client.GetClient().Transport)
		client.UserInfo = nil

		cfg := clientcredentials.Config{
			ClientID:     d.ConsumerKey,
			ClientSecret: d.ConsumerSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		// token requests go through the same proxy and TLS settings
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: base})

		client.SetTransport(&oauth2.Transport{
			Source: cfg.TokenSource(ctx),
			Base:   base,
		})
		return nil
	case nil:
		return fmt.Errorf("no authentication descriptor")
	default:
		return fmt.Errorf("unsupported authentication descriptor %T", desc)
	}
}

// baseTransport returns rt without an oauth2 layer, defaulting to
// http.DefaultTransport.
func baseTransport(rt http.RoundTripper) http.RoundTripper {
	if previous, ok := rt.(*oauth2.Transport); ok {
		rt = previous.Base
	}
	if rt == nil {
		rt = http.DefaultTransport
	}
	return rt
}
