package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/smtp"

	"github.com/shopspring/decimal"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:  cfg,
		send: smtp.SendMail,
	}
}

func (n *SMTPNotifier) SendLinkIssued(ctx context.Context, params LinkIssuedParams) error {
	amount := formatAmount(params.AmountCents)
	body, err := renderLinkIssued(linkIssuedData{
		Amount:      amount,
		PaymentID:   params.PaymentID,
		PaymentLink: params.PaymentLink,
		ExpiresAt:   params.ExpiresAt.UTC().Format("January 2, 2006"),
	})
	if err != nil {
		return err
	}

	return n.sendMail(ctx, params.Email,
		fmt.Sprintf("Payment Request - $%s", amount),
		body,
		invoiceAttachmentName(params.PaymentID),
		params.InvoicePDF,
	)
}

func (n *SMTPNotifier) SendExpiryWarning(ctx context.Context, params ExpiryWarningParams) error {
	amount := formatAmount(params.AmountCents)
	body, err := renderExpiryWarning(expiryWarningData{
		Amount:      amount,
		PaymentID:   params.PaymentID,
		PaymentLink: params.PaymentLink,
	})
	if err != nil {
		return err
	}

	return n.sendMail(ctx, params.Email,
		fmt.Sprintf("Payment Link Expiring Soon - $%s", amount),
		body,
		"", nil,
	)
}

func (n *SMTPNotifier) SendPaymentConfirmed(ctx context.Context, params PaymentConfirmedParams) error {
	amount := formatAmount(params.AmountCents)
	body, err := renderPaymentConfirmed(paymentConfirmedData{
		Amount:    amount,
		PaymentID: params.PaymentID,
	})
	if err != nil {
		return err
	}

	return n.sendMail(ctx, params.Email,
		fmt.Sprintf("Payment Successful - $%s", amount),
		body,
		invoiceAttachmentName(params.PaymentID),
		params.InvoicePDF,
	)
}

func (n *SMTPNotifier) sendMail(ctx context.Context, to, subject, htmlBody, attachmentName string, attachment []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	msg := buildMessage(n.cfg.From, to, subject, htmlBody, attachmentName, attachment)

	return n.send(net.JoinHostPort(n.cfg.Host, n.cfg.Port), auth, n.cfg.From, []string{to}, msg)
}

// buildMessage assembles a multipart/mixed MIME message with an HTML
// body and an optional PDF attachment.
func buildMessage(from, to, subject, htmlBody, attachmentName string, attachment []byte) []byte {
	const boundary = "payment-links-mime-boundary"

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(attachment) == 0 {
		buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
		buf.WriteString(htmlBody)
		buf.WriteString("\r\n")
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	buf.WriteString(htmlBody)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: application/pdf\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", attachmentName)

	encoded := base64.StdEncoding.EncodeToString(attachment)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes()
}

func invoiceAttachmentName(paymentID string) string {
	return fmt.Sprintf("invoice-%s.pdf", paymentID)
}

func formatAmount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
