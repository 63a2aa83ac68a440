package twitter

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/mechaitanya/MarketPulse/models"
)

// SendOutcome classifies the result of one post attempt.
type SendOutcome int

const (
	OutcomeOK SendOutcome = iota
	OutcomeUnauthorized
	OutcomeForbidden
	OutcomeFailed
)

// String returns the outcome label used in tweet logs
func (o SendOutcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "failed"
	}
}

// TokenSource resolves the posting account for an instrument.
type TokenSource interface {
	GetUserTokens(instrumentID int) (*models.User, error)
}

// Notifier is told when an account's authorization has been revoked.
type Notifier interface {
	SendAuthorizationFailed(userName string) error
}

// Sender posts rendered messages to the X API v2 with per-instrument OAuth1
// user credentials.
type Sender struct {
	apiURL         string
	consumerKey    string
	consumerSecret string
	tokens         TokenSource
	notifier       Notifier
	client         *http.Client
}

// NewSender creates a new sender
func NewSender(apiURL, consumerKey, consumerSecret string, tokens TokenSource, notifier Notifier) *Sender {
	return &Sender{
		apiURL:         apiURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		tokens:         tokens,
		notifier:       notifier,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
}

type tweetBody struct {
	Text string `json:"text"`
}

// Send posts the message on behalf of the instrument's account. An
// unauthorized response triggers the support notification; no retry is made.
func (s *Sender) Send(ctx context.Context, instrumentID int, message string) SendOutcome {
	user, err := s.tokens.GetUserTokens(instrumentID)
	if err != nil {
		log.Printf("Posting account not found for instrument %d: %v", instrumentID, err)
		return OutcomeFailed
	}
	if user.AccessCode == "" || user.AccessSecretToken == "" {
		log.Printf("Posting account for instrument %d has no access tokens", instrumentID)
		return OutcomeFailed
	}

	creds := credentials{
		ConsumerKey:       s.consumerKey,
		ConsumerSecret:    s.consumerSecret,
		AccessToken:       user.AccessCode,
		AccessTokenSecret: user.AccessSecretToken,
	}

	status, err := s.post(ctx, creds, message)
	if err != nil {
		log.Printf("HTTP request error posting for instrument %d: %v", instrumentID, err)
		return OutcomeFailed
	}

	switch {
	case status == http.StatusCreated || status == http.StatusOK:
		return OutcomeOK
	case status == http.StatusUnauthorized:
		userName := user.UserName
		if userName == "" {
			userName = "Ghost user"
		}
		if err := s.notifier.SendAuthorizationFailed(userName); err != nil {
			log.Printf("Failed to send authorization notification for %s: %v", userName, err)
		}
		return OutcomeUnauthorized
	case status == http.StatusForbidden:
		return OutcomeForbidden
	default:
		log.Printf("Post for instrument %d returned status %d", instrumentID, status)
		return OutcomeFailed
	}
}

func (s *Sender) post(ctx context.Context, creds credentials, message string) (int, error) {
	payload, err := json.Marshal(tweetBody{Text: message})
	if err != nil {
		return 0, err
	}

	nonce, err := newNonce()
	if err != nil {
		return 0, err
	}
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := signRequest(creds, s.apiURL, nonce, timestamp)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", authorizationHeader(creds, nonce, timestamp, signature))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func newNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
