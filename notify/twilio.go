package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// Twilio sends SMS through the Twilio Messages REST API.
//
// Delivery gets its own retry/backoff policy, independent of the booking
// request: the client retries transient failures with a constant backoff and
// the allocator's dispatch timeout caps the total attempt window.
type Twilio struct {
	accountSID string
	authToken  string
	from       string
	client     *httpclient.Client
	baseURL    string
}

// NewTwilio creates a Twilio SMS notifier.
func NewTwilio(accountSID, authToken, from string) *Twilio {
	backoff := heimdall.NewConstantBackoff(500*time.Millisecond, 50*time.Millisecond)
	retrier := heimdall.NewRetrier(backoff)

	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(5*time.Second),
		httpclient.WithRetrier(retrier),
		httpclient.WithRetryCount(3),
	)

	return &Twilio{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		client:     client,
		baseURL:    twilioBaseURL,
	}
}

// Send delivers one SMS. Any non-2xx response is an error; the caller is
// expected to log and move on.
func (t *Twilio) Send(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, t.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms delivery failed: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
