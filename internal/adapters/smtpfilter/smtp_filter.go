// Package smtpfilter runs the classifier as an SMTP content filter in the
// style of a Postfix before-queue filter: mail comes in on one port, gets
// scored, and is relayed back out with verdict headers attached.
package smtpfilter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/utils"
	"github.com/spamsift/spamsift/internal/whitelist"
)

// Filter is the SMTP frontend of the classifier.
type Filter struct {
	svc           *core.ClassifierService
	logger        *zap.Logger
	whitelist     *whitelist.Checker
	textProc      *utils.TextProcessor
	server        *smtp.Server
	listenAddr    string
	blockSpam     bool
	statusHeader  string
	scoreHeader   string
	profileHeader string
	subjectPrefix string
	modifySubject bool
	relayAddr     string
	relayPort     int
	relayEnabled  bool
	maxBodySize   int
}

// NewFilter creates a new SMTP content filter
func NewFilter(
	svc *core.ClassifierService,
	wl *whitelist.Checker,
	textProc *utils.TextProcessor,
	logger *zap.Logger,
	cfg config.SMTPConfig,
) *Filter {
	subjectPrefix := cfg.SubjectPrefix
	if subjectPrefix == "" && cfg.ModifySubject {
		subjectPrefix = "[**SPAM**] "
	}

	return &Filter{
		svc:           svc,
		logger:        logger,
		whitelist:     wl,
		textProc:      textProc,
		listenAddr:    cfg.ListenAddress,
		blockSpam:     cfg.BlockSpam,
		statusHeader:  cfg.StatusHeader,
		scoreHeader:   cfg.ScoreHeader,
		profileHeader: cfg.ProfileHeader,
		subjectPrefix: subjectPrefix,
		modifySubject: cfg.ModifySubject,
		relayAddr:     cfg.RelayAddress,
		relayPort:     cfg.RelayPort,
		relayEnabled:  cfg.RelayEnabled,
		maxBodySize:   cfg.MaxBodySize,
	}
}

// Name identifies the frontend in logs
func (f *Filter) Name() string { return "smtp" }

// Start starts the SMTP filter service
func (f *Filter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP filter service
func (f *Filter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// relay sends the processed message to the upstream listener using go-smtp
func (f *Filter) relay(sender string, recipients []string, data []byte) error {
	upstream := fmt.Sprintf("%s:%d", f.relayAddr, f.relayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", upstream, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to upstream: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			// Continue with other recipients even if one fails
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err = wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
		// Not returning an error here as the message has already been sent
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *Filter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *Filter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the message and relays it with verdict headers attached
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.filter.logger.Error("Failed to parse message", zap.Error(err))
		return err
	}

	subject := msg.Header.Get("Subject")
	senderDomain := "unknown"
	if parts := strings.Split(s.sender, "@"); len(parts) == 2 {
		senderDomain = parts[1]
	}

	// Whitelisted senders bypass scoring entirely.
	if s.filter.whitelist != nil && s.filter.whitelist.IsWhitelisted(s.sender) {
		s.filter.logger.Info("Skipping classification for whitelisted domain",
			zap.String("sender", s.sender),
			zap.String("action", "whitelist_bypass"))
		return s.deliver(rawData, msg, nil, nil)
	}

	body, err := extractText(msg)
	if err != nil {
		s.filter.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	text := subject + "\n\n" + body
	if s.filter.textProc != nil {
		text = s.filter.textProc.ProcessText(text, s.filter.maxBodySize)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	verdict, classifyErr := s.filter.svc.Decide(ctx, text, "")
	if classifyErr != nil {
		// A failed classification never blocks mail flow; the message is
		// relayed unjudged with the error recorded in a header.
		s.filter.logger.Error("Failed to classify message",
			zap.Error(classifyErr),
			zap.String("sender", s.sender),
			zap.String("sender_domain", senderDomain))
		return s.deliver(rawData, msg, nil, classifyErr)
	}

	if verdict.Label == core.LabelSpam && s.filter.blockSpam {
		s.filter.logger.Info("Rejecting spam message",
			zap.String("from", s.sender),
			zap.String("sender_domain", senderDomain),
			zap.Float64("probability", verdict.Probability),
			zap.String("profile", verdict.Profile))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as spam (probability %.2f)", verdict.Probability),
		}
	}

	s.filter.logger.Info("Processed message",
		zap.String("from", s.sender),
		zap.String("sender_domain", senderDomain),
		zap.String("label", string(verdict.Label)),
		zap.Float64("probability", verdict.Probability),
		zap.String("profile", verdict.Profile))

	return s.deliver(rawData, msg, verdict, nil)
}

// deliver rebuilds the message with verdict headers in front of the
// original ones and hands it to the upstream relay. The original body
// bytes are preserved untouched, MIME structure included.
func (s *smtpSession) deliver(rawData []byte, msg *mail.Message, verdict *core.Verdict, classifyErr error) error {
	var out bytes.Buffer

	isSpam := verdict != nil && verdict.Label == core.LabelSpam
	switch {
	case verdict != nil:
		fmt.Fprintf(&out, "%s: %t\r\n", s.filter.statusHeader, isSpam)
		fmt.Fprintf(&out, "%s: %.4f\r\n", s.filter.scoreHeader, verdict.Probability)
		fmt.Fprintf(&out, "%s: %s\r\n", s.filter.profileHeader, verdict.Profile)
	case classifyErr != nil:
		fmt.Fprintf(&out, "%s: %t\r\n", s.filter.statusHeader, false)
		fmt.Fprintf(&out, "X-Spam-Analysis-Error: %s\r\n", classifyErr.Error())
	default:
		fmt.Fprintf(&out, "%s: %t\r\n", s.filter.statusHeader, false)
		fmt.Fprintf(&out, "%s: whitelist\r\n", s.filter.profileHeader)
	}

	rewriteSubject := isSpam && s.filter.modifySubject && s.filter.subjectPrefix != ""
	if rewriteSubject {
		originalSubject := msg.Header.Get("Subject")
		decodedSubject, err := decodeEncodedHeader(originalSubject)
		if err != nil {
			decodedSubject = originalSubject
		}
		if !strings.HasPrefix(decodedSubject, s.filter.subjectPrefix) {
			fmt.Fprintf(&out, "Subject: %s\r\n", s.filter.subjectPrefix+decodedSubject)
		} else {
			rewriteSubject = false
		}
	}

	for key, values := range msg.Header {
		if rewriteSubject && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&out, "%s: %s\r\n", key, value)
		}
	}
	out.WriteString("\r\n")

	// Find where the original body starts in the raw data
	if idx := bytes.Index(rawData, []byte("\r\n\r\n")); idx != -1 {
		out.Write(rawData[idx+4:])
	} else if idx := bytes.Index(rawData, []byte("\n\n")); idx != -1 {
		out.Write(rawData[idx+2:])
	} else {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			s.filter.logger.Error("Failed to read message body", zap.Error(err))
			return err
		}
		out.Write(bodyBytes)
	}

	if !s.filter.relayEnabled {
		s.filter.logger.Warn("Upstream relay disabled, this is likely a misconfiguration")
		return nil
	}

	if err := s.filter.relay(s.sender, s.recipients, out.Bytes()); err != nil {
		s.filter.logger.Error("Failed to relay message upstream",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}

	return nil
}

// Logout handles SMTP logout (not needed for the filter)
func (s *smtpSession) Logout() error {
	return nil
}
