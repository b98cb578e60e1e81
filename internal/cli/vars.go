package cli

import (
	"context"

	"github.com/valter-silva-au/confluence-assistant/internal/bridge"
	"github.com/valter-silva-au/confluence-assistant/internal/config"
	"github.com/valter-silva-au/confluence-assistant/internal/intent"
	"github.com/valter-silva-au/confluence-assistant/internal/observability"
	"github.com/valter-silva-au/confluence-assistant/internal/storage"
)

// RequestHandler processes one natural-language request end to end and
// returns display text.
type RequestHandler interface {
	HandleRequest(ctx context.Context, text string) string
}

// Service instances, set during app initialization in app.go. OpenBridge is
// deferred so that commands which never touch Confluence (version, stats)
// do not launch the bridge subprocess.
var (
	Cfg         *config.Config
	Handler     RequestHandler
	Bridge      *bridge.Client
	OpenBridge  func(ctx context.Context) error
	EventLog    observability.EventLog
	Transcripts storage.TranscriptStore
	ParserStats func() intent.Stats
)
