package twitter

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// credentials holds the OAuth1 key material for one signed request.
type credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// signRequest computes the OAuth1 HMAC-SHA1 signature for a POST to apiURL.
// The X API v2 signature base string covers only the oauth_* parameters.
func signRequest(creds credentials, apiURL, nonce, timestamp string) string {
	params := strings.Join([]string{
		"oauth_consumer_key=" + creds.ConsumerKey,
		"oauth_nonce=" + nonce,
		"oauth_signature_method=HMAC-SHA1",
		"oauth_timestamp=" + timestamp,
		"oauth_token=" + creds.AccessToken,
		"oauth_version=1.0",
	}, "&")

	base := fmt.Sprintf("POST&%s&%s", url.QueryEscape(apiURL), url.QueryEscape(params))
	signingKey := url.QueryEscape(creds.ConsumerSecret) + "&" + url.QueryEscape(creds.AccessTokenSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// authorizationHeader assembles the OAuth header for a signed request
func authorizationHeader(creds credentials, nonce, timestamp, signature string) string {
	pairs := []string{
		`oauth_consumer_key="` + url.QueryEscape(creds.ConsumerKey) + `"`,
		`oauth_nonce="` + url.QueryEscape(nonce) + `"`,
		`oauth_signature="` + url.QueryEscape(signature) + `"`,
		`oauth_signature_method="HMAC-SHA1"`,
		`oauth_timestamp="` + url.QueryEscape(timestamp) + `"`,
		`oauth_token="` + url.QueryEscape(creds.AccessToken) + `"`,
		`oauth_version="1.0"`,
	}
	return "OAuth " + strings.Join(pairs, ", ")
}
