// Package gateway implements contract.IGateway against the storefront backend,
// either the Supabase REST API or a direct Postgres connection.
package gateway

import (
	"bytes"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
)

var _ contract.IGateway = (*SupabaseGateway)(nil)

const (
	restPath      = "/rest/v1"
	maxErrorBody  = 512
	tableProducts = "products"
	tableMessages = "messages"
	tableComments = "comments"
	countExact    = "exact"
)

var newestFirst = &postgrest.OrderOpts{Ascending: false}

// SupabaseGateway speaks PostgREST through the Supabase project URL with the anon key.
type SupabaseGateway struct {
	log    *slog.Logger
	client *postgrest.Client
}

func NewSupabaseGateway(log *slog.Logger, baseURL, apiKey string, timeout time.Duration) *SupabaseGateway {
	client := postgrest.NewClient(strings.TrimRight(baseURL, "/")+restPath, "", map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + apiKey,
	})
	if client.Transport != nil {
		client.Transport.Parent = &statusGuard{log: log, next: http.DefaultTransport, timeout: timeout}
	}
	return &SupabaseGateway{log: log, client: client}
}

type messageRow struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
	Read    bool   `json:"read"`
}

func (g *SupabaseGateway) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	query := g.client.From(tableProducts).Select("*", "", false)
	if category != "" {
		query = query.Eq("category", category)
	}
	var products []domain.Product
	if err := g.fetch(ctx, query.Order("created_at", newestFirst), &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (g *SupabaseGateway) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	query := g.client.From(tableProducts).Select("*", "", false).Eq("id", id).Limit(1, "")
	var products []domain.Product
	if err := g.fetch(ctx, query, &products); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

func (g *SupabaseGateway) InsertMessage(ctx context.Context, msg domain.BotMessage) error {
	query := g.client.From(tableMessages).Insert(messageRow{
		Name:    msg.Name,
		Email:   msg.Email(),
		Message: msg.Message,
		Read:    false,
	}, false, "", "minimal", "")
	_, _, err := execute(ctx, query)
	return err
}

func (g *SupabaseGateway) CountMessagesSince(ctx context.Context, since time.Time) (int, error) {
	return g.count(ctx, g.client.From(tableMessages).Select("*", countExact, true).
		Gte("created_at", since.UTC().Format(time.RFC3339)))
}

func (g *SupabaseGateway) CountCommentsSince(ctx context.Context, since time.Time) (int, error) {
	return g.count(ctx, g.client.From(tableComments).Select("*", countExact, true).
		Gte("created_at", since.UTC().Format(time.RFC3339)))
}

func (g *SupabaseGateway) CountProductsWithStockBelow(ctx context.Context, threshold int) (int, error) {
	return g.count(ctx, g.client.From(tableProducts).Select("*", countExact, true).
		Lt("stock", strconv.Itoa(threshold)))
}

// count runs a HEAD query; PostgREST reports the exact total in Content-Range.
func (g *SupabaseGateway) count(ctx context.Context, query *postgrest.FilterBuilder) (int, error) {
	_, total, err := execute(ctx, query)
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (g *SupabaseGateway) fetch(ctx context.Context, query *postgrest.FilterBuilder, out any) error {
	body, _, err := execute(ctx, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type executeResult struct {
	body  []byte
	total int64
	err   error
}

// execute runs the query in the background so the caller's context is honoured.
// The round trip itself is bounded by the statusGuard timeout.
func execute(ctx context.Context, query *postgrest.FilterBuilder) ([]byte, int64, error) {
	results := make(chan executeResult, 1)
	go func() {
		body, total, err := query.Execute()
		results <- executeResult{body: body, total: total, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case r := <-results:
		return r.body, r.total, r.err
	}
}

// statusGuard sits under the PostgREST client. It bounds every round trip and
// turns non-2xx answers into errors.GatewayError so callers keep the status.
type statusGuard struct {
	log     *slog.Logger
	next    http.RoundTripper
	timeout time.Duration
}

func (s *statusGuard) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The body must be read before the timeout context is released.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	s.log.Debug("Backend request", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, errors.GatewayError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
