package notifier

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/Houeta/stock-flow/internal/models"
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender fails with the scripted errors first, then succeeds.
type fakeSender struct {
	attempts int
	errs     []error
	lastMsg  *Message
}

func (f *fakeSender) Send(_ context.Context, msg *Message) error {
	f.attempts++
	f.lastMsg = msg
	if f.attempts <= len(f.errs) {
		return f.errs[f.attempts-1]
	}
	return nil
}

func testProducts() []models.ProductAvailability {
	return []models.ProductAvailability{
		{
			ID:         101,
			Title:      "LABUBU Classic",
			TotalStock: 8,
			Variants: []models.VariantStock{
				{Price: 1500, Currency: "JPY", Quantity: 5},
				{Price: 12800, Currency: "JPY", Quantity: 3},
			},
			URL: "https://shop.test/products/101",
		},
		{
			ID:         103,
			Title:      "LABUBU Special <Edition>",
			TotalStock: 1,
			Variants:   []models.VariantStock{{Price: 2200, Currency: "JPY", Quantity: 1}},
			URL:        "https://shop.test/products/103",
		},
	}
}

func newTestNotifier(maxAttempts int, senders ...Sender) (*Notifier, *[]time.Duration) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ntf := New(logger, maxAttempts, 5*time.Second, senders...)

	slept := &[]time.Duration{}
	ntf.sleep = func(d time.Duration) { *slept = append(*slept, d) }

	return ntf, slept
}

func TestNotify_RetryBounds(t *testing.T) {
	transient := markTransient(errors.New("connection reset by peer"))

	testCases := []struct {
		name             string
		maxAttempts      int
		errs             []error
		expectError      bool
		expectedAttempts int
		expectedSleeps   int
	}{
		{
			name:             "success on first attempt",
			maxAttempts:      3,
			errs:             nil,
			expectError:      false,
			expectedAttempts: 1,
			expectedSleeps:   0,
		},
		{
			name:             "transient failures below the budget, then success",
			maxAttempts:      3,
			errs:             []error{transient, transient},
			expectError:      false,
			expectedAttempts: 3,
			expectedSleeps:   2,
		},
		{
			name:             "always transient exhausts the budget",
			maxAttempts:      3,
			errs:             []error{transient, transient, transient, transient},
			expectError:      true,
			expectedAttempts: 3,
			expectedSleeps:   2,
		},
		{
			name:             "non-transient failure is not retried",
			maxAttempts:      3,
			errs:             []error{errors.New("535 authentication rejected")},
			expectError:      true,
			expectedAttempts: 1,
			expectedSleeps:   0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{errs: tc.errs}
			ntf, slept := newTestNotifier(tc.maxAttempts, sender)

			err := ntf.Notify(context.Background(), "THE MONSTERS", time.Now(), testProducts())

			if tc.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expectedAttempts, sender.attempts)
			assert.Len(t, *slept, tc.expectedSleeps)
			for _, d := range *slept {
				assert.Equal(t, 5*time.Second, d)
			}
		})
	}
}

func TestNotify_AllSendersReceiveTheMessage(t *testing.T) {
	mailSender := &fakeSender{}
	chatSender := &fakeSender{}
	ntf, _ := newTestNotifier(3, mailSender, chatSender)

	err := ntf.Notify(context.Background(), "THE MONSTERS", time.Now(), testProducts())

	require.NoError(t, err)
	assert.Equal(t, 1, mailSender.attempts)
	assert.Equal(t, 1, chatSender.attempts)
	assert.Equal(t, mailSender.lastMsg, chatSender.lastMsg)
}

func TestNotify_OneSenderFailingFailsTheCall(t *testing.T) {
	okSender := &fakeSender{}
	badSender := &fakeSender{errs: []error{errors.New("hard failure")}}
	ntf, _ := newTestNotifier(3, okSender, badSender)

	err := ntf.Notify(context.Background(), "THE MONSTERS", time.Now(), testProducts())

	require.Error(t, err)
	assert.Equal(t, 1, okSender.attempts)
}

func TestBuildMessage(t *testing.T) {
	checkedAt := time.Date(2026, 8, 30, 12, 30, 0, 0, time.FixedZone("JST", 9*60*60))

	msg, err := buildMessage("THE MONSTERS", checkedAt, testProducts())
	require.NoError(t, err)

	// Subject carries the new-item count.
	assert.Equal(t, "2 new item(s) in stock - THE MONSTERS", msg.Subject)

	// Plain-text body enumerates titles, grouped prices and links.
	assert.Contains(t, msg.Text, "Checked at: 2026-08-30 12:30:00 (JST)")
	assert.Contains(t, msg.Text, "1. LABUBU Classic")
	assert.Contains(t, msg.Text, "Price: 1,500 JPY")
	assert.Contains(t, msg.Text, "Price: 12,800 JPY")
	assert.Contains(t, msg.Text, "URL: https://shop.test/products/101")
	assert.Contains(t, msg.Text, "2. LABUBU Special <Edition>")
}

func TestBuildMessage_HTMLBody(t *testing.T) {
	checkedAt := time.Date(2026, 8, 30, 12, 30, 0, 0, time.FixedZone("JST", 9*60*60))

	msg, err := buildMessage("THE MONSTERS", checkedAt, testProducts())
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg.HTML))
	require.NoError(t, err)

	assert.Equal(t, 2, doc.Find("h3").Length())

	var links []string
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		require.True(t, ok)
		links = append(links, href)
	})
	assert.Equal(t, []string{"https://shop.test/products/101", "https://shop.test/products/103"}, links)

	// Title markup must be escaped, not interpreted.
	assert.Contains(t, doc.Find("h3").Last().Text(), "LABUBU Special <Edition>")
	assert.NotContains(t, msg.HTML, "<Edition>")
}

func TestClassifySendErr(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		transient bool
	}{
		{
			name:      "connection refused is transient",
			err:       &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			transient: true,
		},
		{
			name:      "connection reset is transient",
			err:       &net.OpError{Op: "read", Err: syscall.ECONNRESET},
			transient: true,
		},
		{
			name:      "timeout is transient",
			err:       &net.OpError{Op: "dial", Err: os.ErrDeadlineExceeded},
			transient: true,
		},
		{
			name:      "authentication rejection is not transient",
			err:       errors.New("535 5.7.8 authentication credentials invalid"),
			transient: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			classified := classifySendErr(tc.err)
			assert.Equal(t, tc.transient, IsTransient(classified))
		})
	}
}
