package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	firebasedb "firebase.google.com/go/v4/db"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Scopes required for admin access to the Realtime Database REST API.
var databaseScopes = []string{
	"https://www.googleapis.com/auth/firebase.database",
	"https://www.googleapis.com/auth/userinfo.email",
}

// FirebaseClient implements Client against the Firebase Realtime Database:
// reads and writes go through the admin SDK, watches use the database's SSE
// streaming REST endpoint (the admin SDK has no listener API in Go).
type FirebaseClient struct {
	db          *firebasedb.Client
	databaseURL string
	httpClient  *http.Client
	tokens      oauth2.TokenSource
	logger      *log.Logger
}

// NewFirebase connects the admin SDK and prepares the streaming credentials.
// credentialsFile may be empty, in which case application default
// credentials are used.
func NewFirebase(ctx context.Context, databaseURL, credentialsFile string, logger *log.Logger) (*FirebaseClient, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	dbClient, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("init database client: %w", err)
	}

	tokens, err := streamTokenSource(ctx, credentialsFile)
	if err != nil {
		// Streaming still works against world-readable paths; log and go on.
		if logger != nil {
			logger.Printf("realtime: no streaming credentials, watching unauthenticated: %v", err)
		}
	}

	return &FirebaseClient{
		db:          dbClient,
		databaseURL: strings.TrimRight(databaseURL, "/"),
		httpClient:  &http.Client{},
		tokens:      tokens,
		logger:      logger,
	}, nil
}

func streamTokenSource(ctx context.Context, credentialsFile string) (oauth2.TokenSource, error) {
	if credentialsFile != "" {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, err
		}
		creds, err := google.CredentialsFromJSON(ctx, data, databaseScopes...)
		if err != nil {
			return nil, err
		}
		return creds.TokenSource, nil
	}
	creds, err := google.FindDefaultCredentials(ctx, databaseScopes...)
	if err != nil {
		return nil, err
	}
	return creds.TokenSource, nil
}

func (c *FirebaseClient) Get(ctx context.Context, path string, v any) error {
	return c.db.NewRef(path).Get(ctx, v)
}

func (c *FirebaseClient) Set(ctx context.Context, path string, v any) error {
	return c.db.NewRef(path).Set(ctx, v)
}

// Watch opens the SSE stream for path. Every put/patch re-reads the full
// value at the path and emits it, so consumers always see a complete record
// instead of partial patches. The stream is not retried: when the platform
// ends it, the channel closes and the consumer decides what to do.
func (c *FirebaseClient) Watch(ctx context.Context, path string) (<-chan Event, error) {
	url := c.databaseURL + "/" + strings.Trim(path, "/") + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("stream token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("open stream %s: status %d", path, resp.StatusCode)
	}

	events := make(chan Event, 8)
	go c.streamLoop(ctx, path, resp, events)
	return events, nil
}

func (c *FirebaseClient) streamLoop(ctx context.Context, path string, resp *http.Response, events chan<- Event) {
	defer close(events)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var eventName string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if eventName != "put" && eventName != "patch" {
				continue
			}
			value, err := c.reread(ctx, path)
			if err != nil {
				if c.logger != nil {
					c.logger.Printf("realtime: re-read %s failed: %v", path, err)
				}
				continue
			}
			select {
			case events <- Event{Path: path, Data: value}:
			case <-ctx.Done():
				return
			}
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil && c.logger != nil {
		c.logger.Printf("realtime: stream %s ended: %v", path, err)
	}
}

func (c *FirebaseClient) reread(ctx context.Context, path string) (json.RawMessage, error) {
	readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	var value json.RawMessage
	if err := c.db.NewRef(path).Get(readCtx, &value); err != nil {
		return nil, err
	}
	return value, nil
}
