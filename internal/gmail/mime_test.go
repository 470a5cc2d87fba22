package gmail

import (
	"strings"
	"testing"
)

const plainMessage = "From: HDFC Bank <alerts@hdfcbank.net>\r\n" +
	"To: user@example.com\r\n" +
	"Subject: Transaction alert\r\n" +
	"Date: Wed, 15 Jan 2025 10:30:00 +0530\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Rs. 500 debited from your account.\r\n"

const multipartMessage = "From: alerts@icicibank.com\r\n" +
	"Subject: UPI alert\r\n" +
	"Date: Wed, 15 Jan 2025 11:00:00 +0530\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"BOUND\"\r\n" +
	"\r\n" +
	"--BOUND\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"plain body here\r\n" +
	"--BOUND\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>html body here</p>\r\n" +
	"--BOUND--\r\n"

func TestParseRawMessage_Plain(t *testing.T) {
	email, err := ParseRawMessage("m1", []byte(plainMessage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if email.MessageID != "m1" {
		t.Errorf("message id = %q", email.MessageID)
	}
	if email.From != "alerts@hdfcbank.net" {
		t.Errorf("from = %q", email.From)
	}
	if email.Subject != "Transaction alert" {
		t.Errorf("subject = %q", email.Subject)
	}
	if !strings.Contains(email.BodyText, "Rs. 500 debited") {
		t.Errorf("body = %q", email.BodyText)
	}
	if email.Date.IsZero() {
		t.Error("date not parsed")
	}
}

func TestParseRawMessage_MultipartPrefersBothParts(t *testing.T) {
	email, err := ParseRawMessage("m2", []byte(multipartMessage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(email.BodyText, "plain body here") {
		t.Errorf("text = %q", email.BodyText)
	}
	if !strings.Contains(email.BodyHTML, "html body here") {
		t.Errorf("html = %q", email.BodyHTML)
	}
}
