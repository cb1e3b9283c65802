package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"github.com/mikhno/subtrack/internal/parser"
	"github.com/mikhno/subtrack/pkg/models"
)

// IMAPConfig configures the IMAP provider.
type IMAPConfig struct {
	DialTimeout time.Duration
}

// IMAP scans generic mailboxes over IMAP. Accounts of this kind carry the
// mailbox password in their access-token field and the server address in
// IMAPServer.
type IMAP struct {
	cfg    IMAPConfig
	logger *slog.Logger
	html   *parser.HTMLParser

	mu       sync.Mutex
	sessions map[int64]*client.Client
}

// NewIMAP creates a new IMAP provider
func NewIMAP(cfg IMAPConfig, logger *slog.Logger) *IMAP {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 30 * time.Second
	}
	return &IMAP{
		cfg:      cfg,
		logger:   logger.With("provider", "imap"),
		html:     parser.NewHTMLParser(),
		sessions: make(map[int64]*client.Client),
	}
}

// session returns a logged-in client with INBOX selected, dialing on
// first use and reusing the connection for the rest of the scan.
func (p *IMAP) session(account *models.ConnectedAccount) (*client.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.sessions[account.ID]; ok {
		return c, nil
	}

	server := account.IMAPServer
	if server == "" {
		server = ResolveIMAPServer(account.Email)
	}

	p.logger.Info("connecting to IMAP server", "server", server, "email", account.Email)

	dialer := &net.Dialer{Timeout: p.cfg.DialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", server, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create IMAP client: %w", err)
	}

	if err := c.Login(account.Email, account.AccessToken); err != nil {
		c.Logout()
		return nil, fmt.Errorf("%w: login failed: %v", ErrCredentials, err)
	}

	if _, err := c.Select("INBOX", true); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	p.sessions[account.ID] = c
	return c, nil
}

// dropSession closes and forgets the cached connection for an account.
func (p *IMAP) dropSession(accountID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.sessions[accountID]; ok {
		go c.Logout()
		delete(p.sessions, accountID)
	}
}

// Close logs out all cached sessions.
func (p *IMAP) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, c := range p.sessions {
		c.Logout()
		delete(p.sessions, id)
	}
}

// renderIMAPCriteria renders a Query into an OR tree of IMAP search
// criteria.
func renderIMAPCriteria(q Query) *imap.SearchCriteria {
	var crits []*imap.SearchCriteria
	for _, s := range q.Subjects {
		c := imap.NewSearchCriteria()
		c.Header.Add("Subject", s)
		crits = append(crits, c)
	}
	for _, f := range q.Froms {
		c := imap.NewSearchCriteria()
		c.Header.Add("From", f)
		crits = append(crits, c)
	}
	for _, phrase := range q.Phrases {
		c := imap.NewSearchCriteria()
		c.Text = []string{phrase}
		crits = append(crits, c)
	}

	if len(crits) == 0 {
		return imap.NewSearchCriteria()
	}

	result := crits[0]
	for _, next := range crits[1:] {
		or := imap.NewSearchCriteria()
		or.Or = [][2]*imap.SearchCriteria{{result, next}}
		result = or
	}
	return result
}

// Search runs the query against INBOX and returns the most recent
// pageSize matches.
func (p *IMAP) Search(ctx context.Context, account *models.ConnectedAccount, query Query, pageSize int) ([]MessageRef, error) {
	c, err := p.session(account)
	if err != nil {
		return nil, err
	}

	uids, err := c.UidSearch(renderIMAPCriteria(query))
	if err != nil {
		p.dropSession(account.ID)
		return nil, fmt.Errorf("imap search: %w", err)
	}

	// Highest UIDs are the most recent messages.
	sort.Slice(uids, func(i, j int) bool { return uids[i] > uids[j] })
	if len(uids) > pageSize {
		uids = uids[:pageSize]
	}

	refs := make([]MessageRef, 0, len(uids))
	for _, uid := range uids {
		refs = append(refs, MessageRef{
			ID:  fmt.Sprintf("imap:%s:%d", account.Email, uid),
			UID: uid,
		})
	}
	return refs, nil
}

// Fetch retrieves one message by UID and decodes its text body.
func (p *IMAP) Fetch(ctx context.Context, account *models.ConnectedAccount, ref MessageRef) (*RawMessage, error) {
	c, err := p.session(account)
	if err != nil {
		return nil, err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(ref.UID)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}
	if err := <-done; err != nil {
		p.dropSession(account.ID)
		return nil, fmt.Errorf("imap fetch uid %d: %w", ref.UID, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("imap fetch uid %d: no message returned", ref.UID)
	}

	raw := &RawMessage{ID: ref.ID, Date: time.Now()}
	if msg.Envelope != nil {
		raw.Subject = msg.Envelope.Subject
		if !msg.Envelope.Date.IsZero() {
			raw.Date = msg.Envelope.Date
		}
		if len(msg.Envelope.From) > 0 {
			raw.From = msg.Envelope.From[0].Address()
		}
	}

	plain, html := p.readBody(msg.GetBody(section))
	raw.Body = plain
	if raw.Body == "" && html != "" {
		if text, err := p.html.Parse(html); err == nil {
			raw.Body = text
		}
	}

	return raw, nil
}

// readBody walks the MIME parts of a message, returning the concatenated
// plain-text parts and the first HTML part. Unreadable parts are skipped.
func (p *IMAP) readBody(body io.Reader) (plain, html string) {
	if body == nil {
		return "", ""
	}

	mr, err := mail.CreateReader(body)
	if err != nil {
		p.logger.Warn("failed to create mail reader", "error", err)
		return "", ""
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.logger.Warn("failed to read part", "error", err)
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		data, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(ct, "text/plain"):
			if plain != "" {
				plain += "\n"
			}
			plain += string(data)
		case strings.HasPrefix(ct, "text/html"):
			if html == "" {
				html = string(data)
			}
		}
	}

	return plain, html
}

// RefreshCredentials is a no-op: IMAP password credentials do not expire.
func (p *IMAP) RefreshCredentials(ctx context.Context, account *models.ConnectedAccount) (*Credentials, error) {
	return nil, nil
}
