package gateway

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const anonKey = "anon-key"

type recordedRequest struct {
	method string
	path   string
	query  string
	header http.Header
	body   []byte
}

func newSupabase(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*SupabaseGateway, *[]recordedRequest) {
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, header: r.Header.Clone(), body: body,
		})
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewSupabaseGateway(logs.GetLoggerFromLevel(slog.LevelDebug), server.URL+"/", anonKey, time.Second), &requests
}

func TestSupabaseGateway_ListProducts(t *testing.T) {
	req := require.New(t)
	gw, requests := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"9f1c","name":"Tulum","description":null,"price":249.5,"stock":4,"category":"tulum","created_at":"2026-10-18T10:00:00.123456+00:00"}]`)
	})

	// When products of a category are listed
	products, err := gw.ListProducts(context.Background(), "tulum")

	// Then the category filter and the newest-first order are requested
	req.NoError(err)
	req.Len(products, 1)
	req.Equal("Tulum", products[0].Name)
	req.Equal(249.5, products[0].Price)
	req.Equal(4, products[0].Stock)
	req.Empty(products[0].Description)
	r := (*requests)[0]
	req.Equal(http.MethodGet, r.method)
	req.Equal("/rest/v1/products", r.path)
	req.Equal("category=eq.tulum&order=created_at.desc.nullslast&select=%2A", r.query)
	req.Equal(anonKey, r.header.Get("apikey"))
	req.Equal("Bearer "+anonKey, r.header.Get("Authorization"))
}

func TestSupabaseGateway_ListProducts_NoCategory(t *testing.T) {
	req := require.New(t)
	gw, requests := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	products, err := gw.ListProducts(context.Background(), "")

	req.NoError(err)
	req.Empty(products)
	req.Equal("order=created_at.desc.nullslast&select=%2A", (*requests)[0].query)
}

func TestSupabaseGateway_GetProduct_Absent(t *testing.T) {
	req := require.New(t)
	gw, requests := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	product, err := gw.GetProduct(context.Background(), "missing")

	req.NoError(err)
	req.Nil(product)
	req.Contains((*requests)[0].query, "id=eq.missing")
}

func TestSupabaseGateway_GetProduct_Found(t *testing.T) {
	req := require.New(t)
	gw, _ := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"9f1c","name":"Tulum","price":249.5,"stock":4}]`)
	})

	product, err := gw.GetProduct(context.Background(), "9f1c")

	req.NoError(err)
	req.NotNil(product)
	req.Equal("9f1c", product.ID)
}

func TestSupabaseGateway_InsertMessage(t *testing.T) {
	req := require.New(t)
	gw, requests := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	err := gw.InsertMessage(context.Background(), domain.BotMessage{
		Name: "ayse", Message: "/rapor", Platform: domain.PlatformTelegram,
	})

	req.NoError(err)
	r := (*requests)[0]
	req.Equal(http.MethodPost, r.method)
	req.Equal("/rest/v1/messages", r.path)
	req.Equal("return=minimal", r.header.Get("Prefer"))
	var row map[string]any
	req.NoError(json.Unmarshal(r.body, &row))
	req.Equal(map[string]any{
		"name": "ayse", "email": "telegram@bot.messages", "message": "/rapor", "read": false,
	}, row)
}

func TestSupabaseGateway_Counts(t *testing.T) {
	req := require.New(t)
	gw, requests := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/messages":
			w.Header().Set("Content-Range", "0-11/12")
		case "/rest/v1/comments":
			w.Header().Set("Content-Range", "*/0")
		default:
			w.Header().Set("Content-Range", "0-2/3")
		}
		w.WriteHeader(http.StatusOK)
	})
	since := time.Date(2026, 10, 18, 0, 0, 0, 0, time.FixedZone("TRT", 3*3600))

	messages, err := gw.CountMessagesSince(context.Background(), since)
	req.NoError(err)
	comments, err := gw.CountCommentsSince(context.Background(), since)
	req.NoError(err)
	lowStock, err := gw.CountProductsWithStockBelow(context.Background(), domain.LowStockThreshold)
	req.NoError(err)

	req.Equal(12, messages)
	req.Zero(comments)
	req.Equal(3, lowStock)
	req.Equal(http.MethodHead, (*requests)[0].method)
	req.Equal("count=exact", (*requests)[0].header.Get("Prefer"))
	req.Equal("created_at=gte.2026-10-17T21%3A00%3A00Z&select=%2A", (*requests)[0].query)
	req.Equal("select=%2A&stock=lt.5", (*requests)[2].query)
}

func TestSupabaseGateway_ErrorStatus(t *testing.T) {
	req := require.New(t)
	gw, _ := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Invalid API key"}`)
	})

	_, err := gw.ListProducts(context.Background(), "")

	var gwErr errors.GatewayError
	req.ErrorAs(err, &gwErr)
	req.Equal(http.StatusUnauthorized, gwErr.Status)
	req.Contains(gwErr.Body, "Invalid API key")
}

func TestSupabaseGateway_Unreachable(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	gw := NewSupabaseGateway(logs.GetLoggerFromLevel(slog.LevelDebug), server.URL, anonKey, time.Second)

	_, err := gw.CountMessagesSince(context.Background(), time.Now())

	req.Error(err)
}

func TestSupabaseGateway_InsertMessage_RejectedRow(t *testing.T) {
	req := require.New(t)
	gw, _ := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"23514","message":"new row violates check constraint"}`)
	})

	err := gw.InsertMessage(context.Background(), domain.BotMessage{Name: "ayse", Message: "/rapor"})

	// Then the status survives the client and the row is not worth retrying
	var gwErr errors.GatewayError
	req.ErrorAs(err, &gwErr)
	req.Equal(http.StatusBadRequest, gwErr.Status)
	req.True(errors.IsRejected(err))
}

func TestSupabaseGateway_InsertMessage_ServerError(t *testing.T) {
	req := require.New(t)
	gw, _ := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `<html>upstream unavailable</html>`)
	})

	err := gw.InsertMessage(context.Background(), domain.BotMessage{Name: "ayse", Message: "/rapor"})

	req.Error(err)
	req.False(errors.IsRejected(err))
}

func TestSupabaseGateway_ContextCancelled(t *testing.T) {
	req := require.New(t)
	release := make(chan struct{})
	gw, _ := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = io.WriteString(w, `[]`)
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.ListProducts(ctx, "")

	req.ErrorIs(err, context.Canceled)
}
