package receipt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/logger"
)

// DisplayTimeFormat is how the receipt timestamp is shown.
const DisplayTimeFormat = "Jan 2, 2006 3:04 PM"

// Receipt is what the success step shows. Timestamp is taken on entry to
// the success step and is for display only.
type Receipt struct {
	TotalAmount           decimal.Decimal `json:"total_amount"`
	ReferenceID           string          `json:"reference_id"`
	AccountOrMobileNumber string          `json:"account_or_mobile_number"`
	ProviderName          string          `json:"provider_name"`
	OwnerID               string          `json:"owner_id"`
	Timestamp             time.Time       `json:"timestamp"`
}

// Renderer renders a receipt for display.
type Renderer interface {
	Render(ctx context.Context, r Receipt) error
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(ctx context.Context, r Receipt) error

func (f RenderFunc) Render(ctx context.Context, r Receipt) error {
	return f(ctx, r)
}

// Discard is a Renderer that shows nothing.
var Discard Renderer = RenderFunc(func(context.Context, Receipt) error { return nil })

// TextRenderer writes a plain-text receipt with the account number masked.
type TextRenderer struct {
	Out      io.Writer
	Location *time.Location // nil means the timestamp's own zone
}

// NewTextRenderer creates a TextRenderer writing to out.
func NewTextRenderer(out io.Writer) *TextRenderer {
	return &TextRenderer{Out: out}
}

// Render implements Renderer.
func (t *TextRenderer) Render(_ context.Context, r Receipt) error {
	b, err := t.Format(r)
	if err != nil {
		return err
	}
	if _, err := t.Out.Write(b); err != nil {
		return fmt.Errorf("receipt: write: %w", err)
	}
	return nil
}

// Format returns the text of the receipt.
func (t *TextRenderer) Format(r Receipt) ([]byte, error) {
	ts := r.Timestamp
	if t.Location != nil {
		ts = ts.In(t.Location)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "PAYMENT SUCCESSFUL")
	fmt.Fprintln(&buf)

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Amount paid\t%s\n", amount.Format(r.TotalAmount))
	fmt.Fprintf(tw, "Paid to\t%s\n", r.ProviderName)
	fmt.Fprintf(tw, "Account\t%s\n", logger.MaskAccount(r.AccountOrMobileNumber))
	fmt.Fprintf(tw, "Reference\t%s\n", r.ReferenceID)
	fmt.Fprintf(tw, "Date\t%s\n", ts.Format(DisplayTimeFormat))
	if err := tw.Flush(); err != nil {
		return nil, fmt.Errorf("receipt: format: %w", err)
	}
	return buf.Bytes(), nil
}
