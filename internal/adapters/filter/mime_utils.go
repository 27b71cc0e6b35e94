package filter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/mikey/email-classifier/internal/core"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

const maxMultipartDepth = 5

var headerDecoder = &mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, err
		}
		return transform.NewReader(input, enc.NewDecoder()), nil
	},
}

// ParseMessage reads an RFC 5322 message into an Email. Subject and body
// are decoded to UTF-8.
func ParseMessage(r io.Reader) (*core.Email, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text content: %w", err)
	}

	email := &core.Email{
		From:    decodeHeader(msg.Header.Get("From")),
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Body:    body,
		Headers: make(map[string][]string, len(msg.Header)),
	}
	for key, values := range msg.Header {
		email.Headers[key] = values
	}
	if to := msg.Header.Get("To"); to != "" {
		if addrs, err := mail.ParseAddressList(to); err == nil {
			for _, addr := range addrs {
				email.To = append(email.To, addr.Address)
			}
		} else {
			email.To = []string{to}
		}
	}

	return email, nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the value
// unchanged when it cannot be decoded
func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// extractTextFromMessage returns the readable text of a message. Plain
// text parts are preferred; HTML parts are used when no plain part exists.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	text, _, err := extractPart(textproto.MIMEHeader(msg.Header), msg.Body, 0)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// extractPart returns the text of one MIME entity and whether it was HTML
func extractPart(header textproto.MIMEHeader, body io.Reader, depth int) (string, bool, error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		// Missing or broken Content-Type is treated as plain text
		mediaType, params = "text/plain", map[string]string{}
	}

	if disposition, _, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil && disposition == "attachment" {
		return "", false, nil
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		if depth >= maxMultipartDepth || params["boundary"] == "" {
			return "", false, nil
		}
		return extractMultipart(multipart.NewReader(body, params["boundary"]), depth)
	case mediaType == "text/plain", mediaType == "text/html":
		data, err := io.ReadAll(decodeTransferEncoding(header, body))
		if err != nil {
			return "", false, fmt.Errorf("failed to read %s part: %w", mediaType, err)
		}
		return decodeCharset(data, params["charset"]), mediaType == "text/html", nil
	default:
		return "", false, nil
	}
}

func extractMultipart(mr *multipart.Reader, depth int) (string, bool, error) {
	var plain, html []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep what was read before a malformed part
			if len(plain) > 0 || len(html) > 0 {
				break
			}
			return "", false, fmt.Errorf("failed to read multipart message: %w", err)
		}

		text, isHTML, err := extractPart(part.Header, part, depth+1)
		if err != nil {
			continue
		}
		if text == "" {
			continue
		}
		if isHTML {
			html = append(html, text)
		} else {
			plain = append(plain, text)
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n"), false, nil
	}
	return strings.Join(html, "\n"), len(html) > 0, nil
}

// multipart.Reader already strips quoted-printable, so only parts that
// still carry the header are decoded here
func decodeTransferEncoding(header textproto.MIMEHeader, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	default:
		return body
	}
}

func decodeCharset(data []byte, charset string) string {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8", "us-ascii":
		return string(data)
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(data)
	}
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
