package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mikhno/subtrack/internal/parser"
	"github.com/mikhno/subtrack/pkg/models"
)

const (
	defaultGmailBaseURL = "https://gmail.googleapis.com"
	defaultTokenURL     = "https://oauth2.googleapis.com/token"
)

// GmailConfig configures the Gmail REST provider.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string // override for tests
	TokenURL     string // override for tests
}

// Gmail talks to the Gmail REST API with the account's OAuth tokens.
type Gmail struct {
	cfg        GmailConfig
	httpClient *http.Client
	html       *parser.HTMLParser
	logger     *slog.Logger
}

// NewGmail creates a new Gmail provider
func NewGmail(cfg GmailConfig, logger *slog.Logger) *Gmail {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGmailBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	return &Gmail{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		html:   parser.NewHTMLParser(),
		logger: logger.With("provider", "gmail"),
	}
}

// renderGmailQuery renders a Query into Gmail search syntax.
func renderGmailQuery(q Query) string {
	var parts []string
	if len(q.Subjects) > 0 {
		parts = append(parts, "subject:("+strings.Join(q.Subjects, " OR ")+")")
	}
	if len(q.Froms) > 0 {
		parts = append(parts, "from:("+strings.Join(q.Froms, " OR ")+")")
	}
	for _, p := range q.Phrases {
		parts = append(parts, strconv.Quote(p))
	}
	return strings.Join(parts, " OR ")
}

type gmailListResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type gmailMessage struct {
	ID           string     `json:"id"`
	InternalDate string     `json:"internalDate"` // epoch millis as string
	Payload      *gmailPart `json:"payload"`
}

type gmailPart struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body  *gmailBody   `json:"body"`
	Parts []*gmailPart `json:"parts"`
}

type gmailBody struct {
	Data string `json:"data"`
}

// Search lists message ids matching the query.
func (g *Gmail) Search(ctx context.Context, account *models.ConnectedAccount, query Query, pageSize int) ([]MessageRef, error) {
	params := url.Values{}
	params.Set("q", renderGmailQuery(query))
	params.Set("maxResults", strconv.Itoa(pageSize))

	var list gmailListResponse
	endpoint := g.cfg.BaseURL + "/gmail/v1/users/me/messages?" + params.Encode()
	if err := g.get(ctx, account, endpoint, &list); err != nil {
		return nil, fmt.Errorf("gmail search: %w", err)
	}

	refs := make([]MessageRef, 0, len(list.Messages))
	for _, m := range list.Messages {
		if m.ID == "" {
			continue
		}
		refs = append(refs, MessageRef{ID: m.ID})
	}
	return refs, nil
}

// Fetch retrieves a full message and decodes its text body.
func (g *Gmail) Fetch(ctx context.Context, account *models.ConnectedAccount, ref MessageRef) (*RawMessage, error) {
	var msg gmailMessage
	endpoint := g.cfg.BaseURL + "/gmail/v1/users/me/messages/" + url.PathEscape(ref.ID) + "?format=full"
	if err := g.get(ctx, account, endpoint, &msg); err != nil {
		return nil, fmt.Errorf("gmail fetch %s: %w", ref.ID, err)
	}

	raw := &RawMessage{ID: msg.ID}
	if raw.ID == "" {
		raw.ID = ref.ID
	}

	var dateHeader string
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "from":
				raw.From = h.Value
			case "subject":
				raw.Subject = h.Value
			case "date":
				dateHeader = h.Value
			}
		}
	}
	raw.Date = g.parseDate(dateHeader, msg.InternalDate)

	plain, html := collectParts(msg.Payload)
	raw.Body = plain
	if raw.Body == "" && html != "" {
		// No plain-text part; fall back to stripping the HTML one.
		text, err := g.html.Parse(html)
		if err != nil {
			g.logger.Warn("failed to parse html body", "message_id", ref.ID, "error", err)
		} else {
			raw.Body = text
		}
	}

	return raw, nil
}

// collectParts recursively flattens a message payload into its plain-text
// body, collecting an HTML body on the side. Undecodable parts are
// skipped; a message with no decodable text yields an empty body.
func collectParts(part *gmailPart) (plain, html string) {
	if part == nil {
		return "", ""
	}
	if part.Body != nil && part.Body.Data != "" {
		if data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(part.Body.Data, "=")); err == nil {
			switch {
			case strings.HasPrefix(part.MimeType, "text/plain"):
				plain = string(data)
			case strings.HasPrefix(part.MimeType, "text/html"):
				html = string(data)
			}
		}
	}
	for _, child := range part.Parts {
		childPlain, childHTML := collectParts(child)
		if childPlain != "" {
			if plain != "" {
				plain += "\n"
			}
			plain += childPlain
		}
		if html == "" {
			html = childHTML
		}
	}
	return plain, html
}

func (g *Gmail) parseDate(dateHeader, internalDate string) time.Time {
	if dateHeader != "" {
		if t, err := mail.ParseDate(dateHeader); err == nil {
			return t
		}
	}
	if internalDate != "" {
		if ms, err := strconv.ParseInt(internalDate, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms)
		}
	}
	return time.Now()
}

// RefreshCredentials exchanges the refresh token for a new access token.
func (g *Gmail) RefreshCredentials(ctx context.Context, account *models.ConnectedAccount) (*Credentials, error) {
	if account.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", ErrCredentials)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", account.RefreshToken)
	form.Set("client_id", g.cfg.ClientID)
	form.Set("client_secret", g.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentials, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: token endpoint returned %d: %s", ErrCredentials, resp.StatusCode, string(body))
	}

	var token struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token in refresh response", ErrCredentials)
	}

	creds := &Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if creds.RefreshToken == "" {
		creds.RefreshToken = account.RefreshToken
	}
	if token.ExpiresIn > 0 {
		creds.Expiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	return creds, nil
}

// get performs an authenticated GET and decodes the JSON response.
func (g *Gmail) get(ctx context.Context, account *models.ConnectedAccount, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+account.AccessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: %s (status %d)", string(body), resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
