package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/chatkeeper/internal/client/client"
	"github.com/dmitrijs2005/chatkeeper/internal/client/config"
	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/dmitrijs2005/chatkeeper/internal/client/repositories/messages"
	"github.com/dmitrijs2005/chatkeeper/internal/client/services"
	"github.com/dmitrijs2005/chatkeeper/internal/client/stream"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"

	_ "modernc.org/sqlite"
)

// App wires the transport, the local cache, the identity session, the
// keyring, and the sync engine behind an interactive REPL.
type App struct {
	config  *config.Config
	log     logging.Logger
	client  client.Client
	db      *sql.DB
	session services.SessionService
	engine  *services.SyncEngine
	channel *stream.Channel

	// conversations as last listed, so commands can accept a list index
	// instead of a full id
	chats []models.Conversation

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	ctx := context.Background()

	a := &App{
		config: c,
		log:    logger,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	apiClient := client.NewHTTPClient(c.APIBaseURL)
	a.client = apiClient

	a.session = services.NewSessionService(apiClient, logger)
	keyring := services.NewKeyring(apiClient, a.session, logger)

	engineOpts := []services.SyncOption{
		services.WithLogger(logger),
		services.WithPageSize(c.PageSize),
		services.WithIncrementalWindow(c.IncrementalWindow),
		services.WithOnChange(a.onChange),
	}

	if c.CacheDSN != "" {
		db, err := client.InitDatabase(ctx, c.CacheDSN)
		if err != nil {
			log.Printf("error initializing cache database: %s", err.Error())
			return nil, err
		}
		a.db = db
		engineOpts = append(engineOpts, services.WithCache(messages.NewSQLiteRepository(db)))
	}

	// the channel delivers hints to the engine, which is built after it
	a.channel = stream.NewChannel(c.StreamURL,
		stream.WithLogger(logger),
		stream.WithReconnect(c.ReconnectAttempts, c.ReconnectBackoff),
		stream.WithOnActivity(func(conversationID string) {
			if a.engine != nil {
				a.engine.HandleActivity(conversationID)
			}
		}),
	)
	engineOpts = append(engineOpts, services.WithLiveChannel(a.channel))

	a.engine = services.NewSyncEngine(apiClient, keyring, engineOpts...)

	return a, nil
}

// Run starts the REPL and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.close(ctx)
	a.Root(ctx)
}

func (a *App) close(ctx context.Context) {
	a.engine.Close()
	if err := a.channel.Close(); err != nil {
		a.log.Warn(ctx, "closing stream channel", "error", err.Error())
	}
	if err := a.client.Close(); err != nil {
		a.log.Warn(ctx, "closing api client", "error", err.Error())
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(ctx, "closing cache database", "error", err.Error())
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.client.Token() != ""
}

func (a *App) isUnlocked() bool {
	return a.session.Unlocked()
}

// onChange redraws the active conversation whenever the engine's view of
// it changes.
func (a *App) onChange(conversationID string) {
	if a.engine.ActiveConversation() != conversationID {
		return
	}
	a.printMessages(conversationID)
}
