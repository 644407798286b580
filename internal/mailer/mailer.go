package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/equipview/equipview/config"
	"github.com/equipview/equipview/internal/export"
)

var quoteBodyTpl = template.Must(template.New("quote").Parse(`
<p>Dear {{ .Contact }},</p>
<p>Please find attached quotation <strong>{{ .Number }}</strong>
covering {{ .Lines }} item(s), total <strong>${{ printf "%.2f" .Total }}</strong>.</p>
<p>This quote was generated on {{ .Date }} and remains valid for 30 days.</p>
<p>Best regards,<br/>{{ .Sender }}</p>
`))

// SendQuote emails the quote to the client contact with the xlsx
// rendering attached.
func SendQuote(smtp config.SmtpConfig, doc *export.QuoteDocument, recipient string) error {
	if smtp.Host == "" || smtp.Sender == "" {
		return errors.New("smtp is not configured")
	}
	if recipient == "" {
		return errors.New("recipient address is empty")
	}

	contact := "Customer"
	if doc.Client != nil && doc.Client.ContactName != "" {
		contact = doc.Client.ContactName
	}
	var body bytes.Buffer
	err := quoteBodyTpl.Execute(&body, map[string]interface{}{
		"Contact": contact,
		"Number":  doc.Quote.QuoteNumber,
		"Lines":   len(doc.Items),
		"Total":   doc.Quote.TotalAmount,
		"Date":    doc.Quote.CreatedAt.Format("2006-01-02"),
		"Sender":  smtp.Sender,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", smtp.Sender)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", fmt.Sprintf("Quotation %s", doc.Quote.QuoteNumber))
	msg.SetBody("text/html", body.String())
	msg.Attach(fmt.Sprintf("%s.xlsx", doc.Quote.QuoteNumber),
		gomail.SetCopyFunc(func(w io.Writer) error {
			return export.WriteQuoteExcel(doc, w)
		}))

	dialer := gomail.NewDialer(smtp.Host, smtp.Port, smtp.Sender, smtp.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "send quote mail")
	}
	return nil
}
