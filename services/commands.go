package services

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	replyGreeting       = "Hello! Welcome to the store assistant bot. Type /help to see the available commands."
	replyStatus         = "System is active and running!"
	replyReportFailed   = "An error occurred while fetching the report."
	replyNotFound       = "Product not found."
	replyMissingProduct = replyNotFound + " Usage: /product <id>"
)

var helpText = strings.Join([]string{
	"Available commands:",
	"/start - Meet the bot",
	"/status - Show the system status",
	"/help - List the commands",
	"/report - Show the daily report",
	"/products [category] - List products",
	"/product <id> - Show product details",
	"",
	"Also accepted: /durum /yardim /rapor /urunler /urun",
}, "\n")

func (s *CommandService) start(context.Context, domain.CommandInvocation) string {
	return replyGreeting
}

func (s *CommandService) status(context.Context, domain.CommandInvocation) string {
	return replyStatus
}

func (s *CommandService) help(context.Context, domain.CommandInvocation) string {
	return helpText
}

// report counts today's activity. The first failing count aborts the report,
// so one unreachable backend produces exactly one error envelope.
func (s *CommandService) report(ctx context.Context, _ domain.CommandInvocation) string {
	since := domain.StartOfDay(s.now())
	var report domain.DailyReport
	var err error

	if report.Messages, err = s.gateway.CountMessagesSince(ctx, since); err != nil {
		s.gatewayFailed("count_messages", err)
		return replyReportFailed
	}
	if report.Comments, err = s.gateway.CountCommentsSince(ctx, since); err != nil {
		s.gatewayFailed("count_comments", err)
		return replyReportFailed
	}
	if report.LowStock, err = s.gateway.CountProductsWithStockBelow(ctx, domain.LowStockThreshold); err != nil {
		s.gatewayFailed("count_low_stock", err)
		return replyReportFailed
	}
	return formatReport(report)
}

func (s *CommandService) products(ctx context.Context, inv domain.CommandInvocation) string {
	products, err := s.gateway.ListProducts(ctx, inv.Arg(0))
	if err != nil {
		s.gatewayFailed("list_products", err)
		products = nil
	}
	if len(products) == 0 {
		return replyNotFound
	}
	return formatProductList(lo.Slice(products, 0, maxListedProducts))
}

func (s *CommandService) product(ctx context.Context, inv domain.CommandInvocation) string {
	id := inv.Arg(0)
	if id == "" {
		return replyMissingProduct
	}
	product, err := s.gateway.GetProduct(ctx, id)
	if err != nil {
		s.gatewayFailed("get_product", err)
		return replyNotFound
	}
	if product == nil {
		return replyNotFound
	}
	return formatProduct(*product)
}

func formatReport(r domain.DailyReport) string {
	return fmt.Sprintf("📊 Daily report:\n• New messages: %d\n• New comments: %d\n• Low stock: %d products",
		max(r.Messages, 0), max(r.Comments, 0), max(r.LowStock, 0))
}

func formatProductList(products []domain.Product) string {
	var b strings.Builder
	b.WriteString("📦 Product list:\n\n")
	for _, p := range products {
		fmt.Fprintf(&b, "• %s\n  Price: %sTL\n  Stock: %d pcs\n\n", p.Name, formatPrice(p.Price), p.Stock)
	}
	return b.String()
}

func formatProduct(p domain.Product) string {
	return fmt.Sprintf("📦 %s\n\nDescription: %s\nPrice: %sTL\nStock: %d pcs\nCategory: %s",
		p.Name, p.Description, formatPrice(p.Price), p.Stock, p.Category)
}

// formatPrice prints 149.9 as "149.9" and 150 as "150".
func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}
