package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// EmailService notifies support when a posting account has revoked or never
// granted authorization. Delivery goes through the transactional mail API.
type EmailService struct {
	apiURL string
	apiKey string
	from   string
	to     string
	client *http.Client
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// NewEmailService creates a new email service
func NewEmailService(apiURL, apiKey, from, to string) *EmailService {
	return &EmailService{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		to:     to,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// SendAuthorizationFailed mails support about a de-authorized posting account
func (e *EmailService) SendAuthorizationFailed(userName string) error {
	if e.apiKey == "" || e.to == "" {
		return fmt.Errorf("mail delivery not configured, skipping notification for %s", userName)
	}

	body := "Dear Admin,<br/><br/>The X user " + userName + " has not authorized the MarketPulse app yet " +
		"or has revoked access for their account.<br/>Please advise the client to re-authorize the account " +
		"on the web application.<br/><br/>Regards."

	payload, err := json.Marshal(emailRequest{
		From:    e.from,
		To:      []string{e.to},
		Subject: "Client authorization failed on MarketPulse",
		HTML:    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, e.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	log.Printf("Authorization-failure notification sent for user %s", userName)
	return nil
}
