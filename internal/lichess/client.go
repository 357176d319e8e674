package lichess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/tsalo/puzzlepress/internal/corpus"
	"github.com/tsalo/puzzlepress/internal/domain"
	"github.com/tsalo/puzzlepress/internal/obslog"
)

const userAgent = "puzzlepress/1.0"

var ErrNoPuzzle = errors.New("no puzzle available")

// Client talks to the lichess puzzle API. It also satisfies
// corpus.Source so a worksheet can be produced without the bulk CSV:
// the daily puzzle plus a small set of bundled records.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type dailyResponse struct {
	Game struct {
		ID  string `json:"id"`
		PGN string `json:"pgn"`
	} `json:"game"`
	Puzzle struct {
		ID       string   `json:"id"`
		Rating   int      `json:"rating"`
		Solution []string `json:"solution"`
		Themes   []string `json:"themes"`
	} `json:"puzzle"`
}

// DailyPuzzle fetches the lichess daily puzzle and converts it to a
// corpus record. The API ships the game moves as SAN up to and
// including the opponent's last move; the record wants the position
// before that move with the move itself in UCI as the setup move.
func (c *Client) DailyPuzzle(ctx context.Context) (*domain.PuzzleRecord, error) {
	var resp dailyResponse
	if err := c.getJSON(ctx, "/puzzle/daily", &resp); err != nil {
		return nil, err
	}
	if resp.Puzzle.ID == "" || len(resp.Puzzle.Solution) == 0 {
		return nil, ErrNoPuzzle
	}

	sans := strings.Fields(resp.Game.PGN)
	if len(sans) == 0 {
		return nil, fmt.Errorf("daily puzzle %s: empty game", resp.Puzzle.ID)
	}

	game := nchess.NewGame()
	for _, san := range sans[:len(sans)-1] {
		if err := game.PushNotationMove(san, nchess.AlgebraicNotation{}, nil); err != nil {
			return nil, fmt.Errorf("daily puzzle %s: replay %q: %w", resp.Puzzle.ID, san, err)
		}
	}
	pos := game.Position()
	setup, err := nchess.AlgebraicNotation{}.Decode(pos, sans[len(sans)-1])
	if err != nil {
		return nil, fmt.Errorf("daily puzzle %s: setup move %q: %w", resp.Puzzle.ID, sans[len(sans)-1], err)
	}

	moves := make([]string, 0, len(resp.Puzzle.Solution)+1)
	moves = append(moves, nchess.UCINotation{}.Encode(pos, setup))
	moves = append(moves, resp.Puzzle.Solution...)

	return &domain.PuzzleRecord{
		ID:      resp.Puzzle.ID,
		FEN:     game.FEN(),
		Moves:   moves,
		Rating:  resp.Puzzle.Rating,
		Themes:  resp.Puzzle.Themes,
		GameURL: "https://lichess.org/training/" + resp.Puzzle.ID,
	}, nil
}

// Fetch implements corpus.Source. The daily puzzle is fetched on a
// best-effort basis and the bundled records fill the rest; everything
// still passes the metadata filter and, downstream, the validator.
func (c *Client) Fetch(ctx context.Context, f corpus.Filter, limit int) ([]domain.PuzzleRecord, error) {
	var out []domain.PuzzleRecord

	if daily, err := c.DailyPuzzle(ctx); err != nil {
		obslog.L().Debug("daily puzzle unavailable", zap.Error(err))
	} else if f.Matches(*daily) {
		out = append(out, *daily)
	}

	for _, rec := range fallbackRecords() {
		if limit > 0 && len(out) >= limit {
			break
		}
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set("Accept", "application/json")
	req.Header.SetUserAgent(userAgent)

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		deadline := c.computeDeadline(ctx)
		if err := c.http.DoDeadline(req, resp, deadline); err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			lastErr = fmt.Errorf("lichess api error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
			if attempt == attempts || !shouldRetryStatus(status) {
				return lastErr
			}
			if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
