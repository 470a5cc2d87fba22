package gmail

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

// ParseRawMessage decodes an RFC822 message into a RawEmail: From,
// Subject, Date from the headers; the first text/plain part and the first
// text/html part from the body.
func ParseRawMessage(messageID string, data []byte) (*models.RawEmail, error) {
	mr, err := mail.CreateReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", messageID, err)
	}

	subject, _ := mr.Header.Subject()
	email := &models.RawEmail{
		MessageID: messageID,
		Subject:   subject,
		FetchedAt: time.Now().UTC(),
	}

	if date, err := mr.Header.Date(); err == nil {
		email.Date = date
	} else {
		email.Date = time.Now().UTC()
	}
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		email.From = addrs[0].Address
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever parts decoded so far.
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}

		switch contentType {
		case "text/plain":
			if email.BodyText == "" {
				body, err := io.ReadAll(part.Body)
				if err == nil {
					email.BodyText = string(body)
				}
			}
		case "text/html":
			if email.BodyHTML == "" {
				body, err := io.ReadAll(part.Body)
				if err == nil {
					email.BodyHTML = string(body)
				}
			}
		}
	}

	return email, nil
}
