// Package notifier formats new-availability notifications and delivers them
// through configured transports with bounded retries on transient failures.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/Houeta/stock-flow/internal/models"
	"github.com/dustin/go-humanize"
)

const defaultMaxAttempts = 3

// Message is one rendered notification with plain-text and HTML bodies.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a rendered message over one transport.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Interface is the notification contract the monitoring engine depends on.
type Interface interface {
	// Notify renders and delivers a notification for the newly available
	// products. Callers must not invoke it with an empty product list.
	Notify(ctx context.Context, collection string, checkedAt time.Time, products []models.ProductAvailability) error
}

// Notifier delivers messages to every configured sender, retrying transient
// transport failures with a fixed delay.
type Notifier struct {
	log         *slog.Logger
	senders     []Sender
	maxAttempts int
	retryDelay  time.Duration
	sleep       func(time.Duration)
}

// New creates a Notifier. maxAttempts is the total number of send attempts
// per sender (not additional retries); values below 1 fall back to the
// default.
func New(log *slog.Logger, maxAttempts int, retryDelay time.Duration, senders ...Sender) *Notifier {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}

	return &Notifier{
		log:         log,
		senders:     senders,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		sleep:       time.Sleep,
	}
}

// Notify renders the notification once and hands it to every sender. A
// failure of any sender (after its retry budget) fails the whole call.
func (n *Notifier) Notify(
	ctx context.Context,
	collection string,
	checkedAt time.Time,
	products []models.ProductAvailability,
) error {
	const opn = "notifier.Notify"

	msg, err := buildMessage(collection, checkedAt, products)
	if err != nil {
		return fmt.Errorf("%s: failed to build message: %w", opn, err)
	}

	var errs []error
	for _, sender := range n.senders {
		if err = n.deliver(ctx, sender, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", opn, err))
		}
	}

	return errors.Join(errs...)
}

// deliver runs the bounded-retry loop for one sender. Only transient errors
// are retried; the last error is propagated when the attempt budget is
// exhausted.
func (n *Notifier) deliver(ctx context.Context, sender Sender, msg *Message) error {
	for attempt := 1; ; attempt++ {
		err := sender.Send(ctx, msg)
		if err == nil {
			return nil
		}

		if !IsTransient(err) {
			return fmt.Errorf("send failed: %w", err)
		}
		if attempt >= n.maxAttempts {
			return fmt.Errorf("send failed after %d attempts: %w", attempt, err)
		}

		n.log.Warn("Transient send failure, retrying",
			"attempt", attempt, "max_attempts", n.maxAttempts, "retry_delay", n.retryDelay, "error", err)
		n.sleep(n.retryDelay)
	}
}

// transientError marks a transport failure as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func markTransient(err error) error {
	return &transientError{err: err}
}

// IsTransient reports whether err was marked as a retryable transport
// failure by a sender.
func IsTransient(err error) bool {
	var target *transientError
	return errors.As(err, &target)
}

// classifySendErr marks connection-level failures (reset, refused, broken
// pipe, timeout) as transient; everything else, such as an authentication
// rejection, propagates unchanged.
func classifySendErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return markTransient(err)
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return markTransient(err)
	}

	return err
}

const htmlBody = `<html>
<body>
<h2>New items in stock - {{.Collection}}</h2>
<p><strong>Checked at:</strong> {{.CheckedAt}}</p>
<p><strong>New items:</strong> {{.Count}}</p>
<hr>
{{range .Items}}<h3>{{.Index}}. {{.Title}}</h3>
<ul>
{{range .Prices}}<li><strong>Price:</strong> {{.}} - in stock</li>
{{end}}</ul>
<p><a href="{{.URL}}" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;">View product page</a></p>
<hr>
{{end}}</body>
</html>
`

var htmlTemplate = template.Must(template.New("notification").Parse(htmlBody))

type messageItem struct {
	Index  int
	Title  string
	Prices []string
	URL    string
}

type messageData struct {
	Collection string
	CheckedAt  string
	Count      int
	Items      []messageItem
}

// buildMessage renders the subject, plain-text body and HTML body for the
// newly available products.
func buildMessage(collection string, checkedAt time.Time, products []models.ProductAvailability) (*Message, error) {
	if collection == "" {
		collection = "collection"
	}

	data := messageData{
		Collection: collection,
		CheckedAt:  checkedAt.Format("2006-01-02 15:04:05 (MST)"),
		Count:      len(products),
		Items:      make([]messageItem, 0, len(products)),
	}

	for i, product := range products {
		item := messageItem{
			Index: i + 1,
			Title: product.Title,
			URL:   product.URL,
		}
		for _, variant := range product.Variants {
			item.Prices = append(item.Prices, fmt.Sprintf("%s %s", humanize.Comma(variant.Price), variant.Currency))
		}
		data.Items = append(data.Items, item)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "New items are in stock in %s.\n", collection)
	fmt.Fprintf(&text, "\nChecked at: %s\n", data.CheckedAt)
	fmt.Fprintf(&text, "New items: %d\n", data.Count)
	for _, item := range data.Items {
		fmt.Fprintf(&text, "\n%d. %s\n", item.Index, item.Title)
		for _, price := range item.Prices {
			fmt.Fprintf(&text, "   Price: %s - in stock\n", price)
		}
		fmt.Fprintf(&text, "   URL: %s\n", item.URL)
	}

	var html strings.Builder
	if err := htmlTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	return &Message{
		Subject: fmt.Sprintf("%d new item(s) in stock - %s", len(products), collection),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
