package connectors

import (
	"context"

	"focorders/internal"
)

// MailConnector pulls candidate order messages from one mailbox.
type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}
