package filter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/core"
	"go.uber.org/zap"
)

// Classifier is the part of the classifier service the filters use
type Classifier interface {
	Classify(ctx context.Context, req *core.ClassificationRequest) (*core.PredictionResult, error)
}

// SMTPFilter is a content filter that tags each message with its
// predicted category and priority and relays it to the downstream MTA
type SMTPFilter struct {
	service Classifier
	logger  *zap.Logger
	cfg     config.SMTPConfig
	server  *smtp.Server
}

// NewSMTPFilter creates a new SMTP tagging filter
func NewSMTPFilter(service Classifier, logger *zap.Logger, cfg config.SMTPConfig) *SMTPFilter {
	if cfg.Domain == "" {
		cfg.Domain = "localhost"
	}
	return &SMTPFilter{
		service: service,
		logger:  logger,
		cfg:     cfg,
	}
}

func (f *SMTPFilter) newServer() *smtp.Server {
	server := smtp.NewServer(&smtpBackend{filter: f})
	server.Addr = f.cfg.ListenAddress
	server.Domain = f.cfg.Domain
	server.ReadTimeout = 30 * time.Second
	server.WriteTimeout = 30 * time.Second
	server.MaxMessageBytes = f.cfg.MaxMessageBytes
	server.MaxRecipients = 50
	server.AllowInsecureAuth = true
	return server
}

// Start starts listening on the configured address
func (f *SMTPFilter) Start() error {
	listener, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}
	return f.Serve(listener)
}

// Serve accepts SMTP connections on l in the background
func (f *SMTPFilter) Serve(l net.Listener) error {
	f.server = f.newServer()

	f.logger.Info("SMTP filter starting",
		zap.String("address", l.Addr().String()),
		zap.Bool("relay_enabled", f.cfg.RelayEnabled))

	go func() {
		if err := f.server.Serve(l); err != nil && err != smtp.ErrServerClosed {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail classifies a parsed email
func (f *SMTPFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.PredictionResult, error) {
	return f.service.Classify(ctx, requestFromEmail(email))
}

// TagMessage classifies a raw message and returns it with classification
// headers prepended. The original message bytes follow unchanged.
// A classification failure is reported in the error header, not returned.
func (f *SMTPFilter) TagMessage(ctx context.Context, sender string, raw []byte) ([]byte, *core.PredictionResult, error) {
	email, err := ParseMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, nil, err
	}
	if email.From == "" {
		email.From = sender
	}

	result, classifyErr := f.ProcessEmail(ctx, email)

	var tagged bytes.Buffer
	h := f.cfg.Headers
	if classifyErr != nil {
		f.logger.Error("Failed to classify email",
			zap.Error(classifyErr),
			zap.String("sender", sender))
		writeHeader(&tagged, h.Error, classifyErr.Error())
	} else {
		writeHeader(&tagged, h.Category, result.Category)
		writeHeader(&tagged, h.Priority, result.Priority)
		writeHeader(&tagged, h.CategoryConfidence, strconv.FormatFloat(result.CategoryConfidence, 'f', 4, 64))
		writeHeader(&tagged, h.PriorityConfidence, strconv.FormatFloat(result.PriorityConfidence, 'f', 4, 64))
		writeHeader(&tagged, h.ModelVersion, result.ModelVersion)
	}
	tagged.Write(raw)

	return tagged.Bytes(), result, nil
}

func writeHeader(w *bytes.Buffer, name, value string) {
	if name == "" {
		return
	}
	// Header values must stay on one line
	fmt.Fprintf(w, "%s: %s\r\n", name, strings.Join(strings.Fields(value), " "))
}

func requestFromEmail(email *core.Email) *core.ClassificationRequest {
	return &core.ClassificationRequest{
		Subject: email.Subject,
		Body:    email.Body,
		Sender:  email.From,
	}
}

// relay sends the tagged message to the downstream MTA
func (f *SMTPFilter) relay(sender string, recipients []string, data []byte) error {
	addr := net.JoinHostPort(f.cfg.RelayAddress, strconv.Itoa(f.cfg.RelayPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay %s: %w", addr, err)
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

	accepted := 0
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message is already accepted at this point
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
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

// Data classifies, tags and relays one message
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tagged, result, err := s.filter.TagMessage(ctx, s.sender, raw)
	if err != nil {
		s.filter.logger.Error("Failed to parse email message",
			zap.Error(err),
			zap.String("sender", s.sender))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}

	if s.filter.cfg.RelayEnabled {
		if err := s.filter.relay(s.sender, s.recipients, tagged); err != nil {
			s.filter.logger.Error("Failed to relay email",
				zap.Error(err),
				zap.String("sender", s.sender))
			return &smtp.SMTPError{
				Code:         451,
				EnhancedCode: smtp.EnhancedCode{4, 4, 0},
				Message:      "Relay temporarily unavailable",
			}
		}
	} else {
		s.filter.logger.Warn("Relay disabled, tagged message dropped", zap.String("sender", s.sender))
	}

	fields := []zap.Field{
		zap.String("sender", s.sender),
		zap.Int("recipients", len(s.recipients)),
	}
	if result != nil {
		fields = append(fields,
			zap.String("category", result.Category),
			zap.String("priority", result.Priority),
			zap.String("model_version", result.ModelVersion))
	}
	s.filter.logger.Info("Processed email", fields...)

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
