package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
)

var (
	guestWelcomeTmpl = template.Must(template.New("guest_welcome").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>Welcome to {{.StoreName}}, {{.Name}}!</h2>
<p>Thank you for your order. We created an account for you so you can track it.</p>
<table cellpadding="4">
<tr><td><strong>Order number</strong></td><td>{{.OrderID}}</td></tr>
<tr><td><strong>Total</strong></td><td>{{.Total}}</td></tr>
<tr><td><strong>Email</strong></td><td>{{.Email}}</td></tr>
<tr><td><strong>Temporary password</strong></td><td><code>{{.Password}}</code></td></tr>
</table>
<p>You will be asked to choose a new password the first time you <a href="{{.StoreURL}}/login">sign in</a>.</p>
</body></html>`))

	orderConfirmationTmpl = template.Must(template.New("order_confirmation").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>Thank you for your order, {{.Name}}!</h2>
<p>Your order <strong>{{.OrderID}}</strong> has been placed on your existing {{.StoreName}} account.</p>
<p>Total: <strong>{{.Total}}</strong></p>
<p>You can follow it from <a href="{{.StoreURL}}/orders">your orders page</a>.</p>
</body></html>`))

	verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2>Verify your {{.StoreName}} account</h2>
<p>Hello {{.Name}}, your verification code is:</p>
<p style="font-size:24px;letter-spacing:4px"><strong>{{.Code}}</strong></p>
<p>The code expires in {{.ExpiresIn}}.</p>
</body></html>`))
)

// Composer renders the store's transactional emails.
type Composer struct {
	StoreName string
	StoreURL  string
}

// OrderMail holds the fields shared by order emails.
type OrderMail struct {
	To      string
	Name    string
	OrderID string
	Total   decimal.Decimal
}

// GuestWelcome renders the welcome email for an account created at checkout.
// It is the only place the generated password is ever written out.
func (c Composer) GuestWelcome(order OrderMail, password string) (Message, error) {
	html, err := render(guestWelcomeTmpl, map[string]interface{}{
		"StoreName": c.StoreName,
		"StoreURL":  c.StoreURL,
		"Name":      order.Name,
		"Email":     order.To,
		"OrderID":   order.OrderID,
		"Total":     order.Total.StringFixed(2),
		"Password":  password,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      order.To,
		Subject: fmt.Sprintf("Welcome to %s - your account and order %s", c.StoreName, order.OrderID),
		HTML:    html,
	}, nil
}

// OrderConfirmation renders the confirmation for an order on an existing account.
func (c Composer) OrderConfirmation(order OrderMail) (Message, error) {
	html, err := render(orderConfirmationTmpl, map[string]interface{}{
		"StoreName": c.StoreName,
		"StoreURL":  c.StoreURL,
		"Name":      order.Name,
		"OrderID":   order.OrderID,
		"Total":     order.Total.StringFixed(2),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      order.To,
		Subject: fmt.Sprintf("%s order confirmation %s", c.StoreName, order.OrderID),
		HTML:    html,
	}, nil
}

// Verification renders the email carrying a sign-up verification code.
func (c Composer) Verification(to, name, code, expiresIn string) (Message, error) {
	html, err := render(verificationTmpl, map[string]interface{}{
		"StoreName": c.StoreName,
		"Name":      name,
		"Code":      code,
		"ExpiresIn": expiresIn,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your %s verification code", c.StoreName),
		HTML:    html,
		Text:    fmt.Sprintf("Your %s verification code is %s. It expires in %s.", c.StoreName, code, expiresIn),
	}, nil
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
