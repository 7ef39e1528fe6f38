package notify

import (
	"bytes"
	"html/template"
)

type linkIssuedData struct {
	Amount      string
	PaymentID   string
	PaymentLink string
	ExpiresAt   string
}

type expiryWarningData struct {
	Amount      string
	PaymentID   string
	PaymentLink string
}

type paymentConfirmedData struct {
	Amount    string
	PaymentID string
}

var linkIssuedTemplate = template.Must(template.New("link_issued").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #2563eb; color: white; padding: 30px; border-radius: 10px; text-align: center;">
    <h1 style="margin: 0; font-size: 28px;">Payment Request</h1>
    <p style="margin: 10px 0 0 0; font-size: 16px;">You have a payment request</p>
  </div>
  <div style="background: white; padding: 30px; border-radius: 10px; margin-top: 20px;">
    <div style="text-align: center; margin-bottom: 30px;">
      <div style="background: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <p style="margin: 0; font-size: 14px; color: #6b7280;">Amount</p>
        <p style="margin: 5px 0 0 0; font-size: 32px; font-weight: bold; color: #2563eb;">${{.Amount}}</p>
      </div>
      <p style="color: #6b7280; font-size: 14px;">Payment ID: {{.PaymentID}}</p>
    </div>
    <div style="text-align: center;">
      <a href="{{.PaymentLink}}" style="background: #2563eb; color: white; text-decoration: none; padding: 15px 30px; border-radius: 8px; font-weight: bold; display: inline-block;">Pay Now</a>
    </div>
    <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb;">
      <p style="color: #6b7280; font-size: 12px; margin: 0;">This payment link will expire on {{.ExpiresAt}}. If you have any questions, please contact us.</p>
    </div>
  </div>
</div>
`))

var expiryWarningTemplate = template.Must(template.New("expiry_warning").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #d97706; color: white; padding: 30px; border-radius: 10px; text-align: center;">
    <h1 style="margin: 0; font-size: 28px;">Payment Link Expiring Soon</h1>
    <p style="margin: 10px 0 0 0; font-size: 16px;">Your payment link is about to expire</p>
  </div>
  <div style="background: white; padding: 30px; border-radius: 10px; margin-top: 20px;">
    <div style="text-align: center; margin-bottom: 30px;">
      <div style="background: #fef3c7; padding: 20px; border-radius: 8px; margin: 20px 0;">
        <p style="margin: 0; font-size: 14px; color: #92400e;">Amount</p>
        <p style="margin: 5px 0 0 0; font-size: 32px; font-weight: bold; color: #d97706;">${{.Amount}}</p>
      </div>
      <p style="color: #6b7280; font-size: 14px;">Payment ID: {{.PaymentID}}</p>
    </div>
    <div style="text-align: center;">
      <a href="{{.PaymentLink}}" style="background: #d97706; color: white; text-decoration: none; padding: 15px 30px; border-radius: 8px; font-weight: bold; display: inline-block;">Pay Now Before It Expires</a>
    </div>
  </div>
</div>
`))

var paymentConfirmedTemplate = template.Must(template.New("payment_confirmed").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; padding: 20px; background: #f9f9f9;">
  <h2 style="color: #0d6efd;">Payment Successful</h2>
  <p>Hi there,</p>
  <p>We received your payment of <strong>${{.Amount}}</strong>.</p>
  <p style="color: #6b7280; font-size: 14px;">Payment ID: {{.PaymentID}}</p>
  <p>Your invoice is attached to this email.</p>
</div>
`))

func renderLinkIssued(data linkIssuedData) (string, error) {
	return render(linkIssuedTemplate, data)
}

func renderExpiryWarning(data expiryWarningData) (string, error) {
	return render(expiryWarningTemplate, data)
}

func renderPaymentConfirmed(data paymentConfirmedData) (string, error) {
	return render(paymentConfirmedTemplate, data)
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
