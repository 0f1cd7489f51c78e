package services

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v2"

	"roofradar/internal/domain"
)

// Mailer sends one HTML email. Tests substitute a recorder.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

// ResendMailer delivers through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) Send(ctx context.Context, to []string, subject, html string) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      to,
		Subject: subject,
		Html:    html,
	})
	return err
}

// DeliveryNotifier covers the post-payment emails.
type DeliveryNotifier interface {
	Delivery(ctx context.Context, buyer domain.Buyer, downloadURL string) error
	OperatorSaleNotice(ctx context.Context, buyer domain.Buyer, amountCents int64) error
}

// NotifyService owns every outbound email template.
type NotifyService struct {
	Mail          Mailer
	OperatorEmail string
	ProductName   string
	ProductCity   string
}

func NewNotifyService(mail Mailer, operatorEmail, productName, productCity string) *NotifyService {
	return &NotifyService{Mail: mail, OperatorEmail: operatorEmail, ProductName: productName, ProductCity: productCity}
}

// Delivery sends the buyer their permanent download link.
func (s *NotifyService) Delivery(ctx context.Context, buyer domain.Buyer, downloadURL string) error {
	html := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Your Database is Ready</h1>
  <p>Hi %s,</p>
  <p>Thank you for your purchase! Your %s is ready for download.</p>
  <p><a href="%s">Download CSV File</a></p>
  <p style="font-size: 12px; color: #666;">This link never expires - save it for future access.</p>
  <ul>
    <li>Property owner names &amp; contact information</li>
    <li>Warranty expiration dates</li>
    <li>Building details (age, square footage, type)</li>
    <li>Last roof permit dates</li>
  </ul>
  <p>Questions? Reply to this email.</p>
</div>`, buyer.Name, s.ProductName, downloadURL)

	return s.Mail.Send(ctx, []string{buyer.Email}, fmt.Sprintf("Your %s is Ready", s.ProductName), html)
}

// OperatorSaleNotice tells the operator a copy was sold and delivered.
func (s *NotifyService) OperatorSaleNotice(ctx context.Context, buyer domain.Buyer, amountCents int64) error {
	html := fmt.Sprintf(`
<h2>Database Copy Sold</h2>
<p><strong>Buyer:</strong> %s (%s)</p>
<p><strong>Company:</strong> %s</p>
<p><strong>Phone:</strong> %s</p>
<p><strong>Amount:</strong> $%.2f</p>`,
		buyer.Name, buyer.Email, buyer.Company, buyer.Phone, float64(amountCents)/100)

	return s.Mail.Send(ctx, []string{s.OperatorEmail}, fmt.Sprintf("%s copy sold", s.ProductCity), html)
}

// FreeLead notifies the operator of a free-lead request and confirms to the
// prospect. The operator email matters more; it goes first and its failure
// propagates.
func (s *NotifyService) FreeLead(ctx context.Context, name, email, company string) error {
	ownerHTML := fmt.Sprintf(`
<h2>New Free Lead Request</h2>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Company:</strong> %s</p>
<p><strong>Requested at:</strong> %s</p>
<p style="color: #666; font-size: 12px;">Follow up immediately to send them their free lead.</p>`,
		name, email, company, time.Now().UTC().Format(time.RFC1123))

	if err := s.Mail.Send(ctx, []string{s.OperatorEmail}, "New Free Lead Request", ownerHTML); err != nil {
		return err
	}

	prospectHTML := fmt.Sprintf(`
<h1>Thanks for your interest, %s!</h1>
<p>We're preparing your free high-value %s commercial roofing lead right now.</p>
<p>You'll receive it shortly at this email address.</p>`, name, s.ProductCity)

	return s.Mail.Send(ctx, []string{email}, "Your Free Lead is On The Way!", prospectHTML)
}

// WaitlistConfirm acknowledges a next-release waitlist signup.
func (s *NotifyService) WaitlistConfirm(ctx context.Context, name, email string) error {
	html := fmt.Sprintf(`
<h1>You're on the list, %s</h1>
<p>We'll email you the moment the next %s database release opens up.</p>`, name, s.ProductCity)

	return s.Mail.Send(ctx, []string{email}, "You're on the waitlist", html)
}
