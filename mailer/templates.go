package mailer

import (
	"fmt"
	"strings"

	"github.com/billsync/billsync_backend/models"
)

const emailDateLayout = "January 2, 2006"

// RenderInvoiceEmail builds the HTML body for an invoice notification.
// Kept as a pure function so templates can be unit tested without SMTP.
func RenderInvoiceEmail(invoice *models.Invoice) string {
	var rows strings.Builder
	for _, item := range invoice.Items {
		name := fmt.Sprintf("Product #%d", item.ProductId)
		if item.Product != nil {
			name = item.Product.Name
		}
		rows.WriteString(fmt.Sprintf(
			`<tr><td style="padding: 10px; border: 1px solid #dee2e6;">%s</td>`+
				`<td style="padding: 10px; text-align: center; border: 1px solid #dee2e6;">%d</td>`+
				`<td style="padding: 10px; text-align: right; border: 1px solid #dee2e6;">₹%s</td>`+
				`<td style="padding: 10px; text-align: right; border: 1px solid #dee2e6;">₹%s</td></tr>`,
			name, item.Quantity,
			item.UnitPrice.StringFixed(2), item.TotalPrice.StringFixed(2)))
	}

	statusColor := "#dc3545"
	switch invoice.Status {
	case models.InvoiceStatusPaid:
		statusColor = "#28a745"
	case models.InvoiceStatusPending:
		statusColor = "#ffc107"
	}

	return fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2 style="color: #2c3e50;">Invoice %s</h2>
<p>Dear Customer,</p>
<p>Please find your invoice details below:</p>
<div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
<p><strong>Invoice Number:</strong> %s</p>
<p><strong>Invoice Date:</strong> %s</p>
<p><strong>Due Date:</strong> %s</p>
</div>
<h3 style="color: #2c3e50;">Items:</h3>
<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
<thead>
<tr style="background-color: #e9ecef;">
<th style="padding: 10px; text-align: left; border: 1px solid #dee2e6;">Product</th>
<th style="padding: 10px; text-align: center; border: 1px solid #dee2e6;">Quantity</th>
<th style="padding: 10px; text-align: right; border: 1px solid #dee2e6;">Price</th>
<th style="padding: 10px; text-align: right; border: 1px solid #dee2e6;">Total</th>
</tr>
</thead>
<tbody>%s</tbody>
</table>
<div style="text-align: right; margin: 20px 0;">
<p><strong>Subtotal:</strong> ₹%s</p>
<p><strong>Tax (18%%):</strong> ₹%s</p>
<p style="font-size: 18px; font-weight: bold;"><strong>Total:</strong> ₹%s</p>
<p><strong>Status:</strong> <span style="color: %s;">%s</span></p>
</div>
<p>Thank you for your business!</p>
<p>Best regards,<br>BillSync Team</p>
</div>
</body>
</html>`,
		invoice.InvoiceNumber,
		invoice.InvoiceNumber,
		invoice.InvoiceDate.Format(emailDateLayout),
		invoice.DueDate.Format(emailDateLayout),
		rows.String(),
		invoice.Subtotal.StringFixed(2),
		invoice.TaxAmount.StringFixed(2),
		invoice.TotalAmount.StringFixed(2),
		statusColor,
		titleCase(string(invoice.Status)))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RenderWelcomeEmail builds the HTML body sent with a freshly provisioned
// customer login and its temporary password.
func RenderWelcomeEmail(email string, tempPassword string) string {
	return fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; color:#333;">
<h2>Your BillSync Account Details</h2>
<p>Your login has been created.</p>
<p><strong>Email:</strong> %s<br/>
<strong>Temporary Password:</strong> %s</p>
<p>Please log in and change your password immediately using the Change Password option.</p>
<p>Regards,<br/>BillSync Team</p>
</body>
</html>`, email, tempPassword)
}
