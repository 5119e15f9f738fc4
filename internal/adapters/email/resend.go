package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"

	"github.com/philly/school-finance/backend/internal/notifications/ports"
	"github.com/philly/school-finance/backend/internal/platform/logger"
)

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": FormatCents,
}).Parse(`<p>Dear guardian of {{.StudentName}},</p>
<p>We received your payment of <strong>{{money .Amount}}</strong> for {{.Description}}.</p>
{{if .Settled}}<p>The bill is now fully paid. Thank you.</p>{{else}}<p>Remaining balance: {{money .Outstanding}}.</p>{{end}}
<p>Reference: {{.BillID}} ({{.Period}})</p>`))

// ResendReceiptSender delivers receipts through the Resend API.
type ResendReceiptSender struct {
	client *resend.Client
	from   string
	logger logger.Logger
}

func NewResendReceiptSender(client *resend.Client, from string, logger logger.Logger) *ResendReceiptSender {
	return &ResendReceiptSender{client: client, from: from, logger: logger}
}

func (s *ResendReceiptSender) SendReceipt(ctx context.Context, r ports.Receipt) error {
	var body bytes.Buffer
	if err := receiptTemplate.Execute(&body, r); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}

	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{r.To},
		Subject: Subject(r),
		Html:    body.String(),
	})
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.logger.Warn(ctx, "resend rate limit exceeded",
				"limit", rateLimitErr.Limit,
				"remaining", rateLimitErr.Remaining,
				"reset", rateLimitErr.Reset,
			)
			return fmt.Errorf("email rate limit exceeded (resets in %s seconds): %w", rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Debug(ctx, "receipt sent via Resend", "emailID", sent.Id, "to", r.To)
	return nil
}

// LogReceiptSender only logs receipts. Used when no Resend key is configured.
type LogReceiptSender struct {
	logger logger.Logger
}

func NewLogReceiptSender(logger logger.Logger) *LogReceiptSender {
	return &LogReceiptSender{logger: logger}
}

func (s *LogReceiptSender) SendReceipt(ctx context.Context, r ports.Receipt) error {
	s.logger.Info(ctx, "email disabled, receipt not sent",
		"to", r.To,
		"billID", r.BillID,
		"amount", FormatCents(r.Amount),
	)
	return nil
}

func Subject(r ports.Receipt) string {
	if r.Settled {
		return fmt.Sprintf("Payment received: %s's bill is paid", r.StudentName)
	}
	return fmt.Sprintf("Payment received for %s", r.StudentName)
}

// FormatCents renders an amount in cents as "1,234.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	for i := len(whole) - 3; i > 0; i -= 3 {
		whole = whole[:i] + "," + whole[i:]
	}
	return fmt.Sprintf("%s%s.%02d", sign, whole, cents%100)
}
