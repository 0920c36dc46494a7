// Command journal prints the bot messages waiting in the relay journal.
// It opens the store read-only so it can run next to a live relay.
package main

import (
	"chat-relay/repositories"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	_ = godotenv.Load()
	dbPath := flag.String("db", os.Getenv("JOURNAL_PATH"), "Path to the journal badger directory")
	limit := flag.Int("limit", 0, "Maximum number of entries to print (0 prints all)")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("No journal path: pass -db or set JOURNAL_PATH")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer db.Close()

	journal := repositories.NewJournal(db, logs.GetLoggerFromLevel(slog.LevelWarn))
	entries, err := journal.Pending(*limit)
	if err != nil {
		log.Fatalf("Failed to read journal: %v", err)
	}

	if len(entries) == 0 {
		color.Green.Println("Journal is empty, every message reached the backend.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Queued at", "Sender", "Email", "Message", "Key"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, entry := range entries {
		table.Append([]string{
			entry.At.Local().Format(time.DateTime),
			entry.Message.Name,
			entry.Message.Email(),
			entry.Message.Message,
			entry.Key,
		})
	}
	table.Render()

	color.Yellow.Printf("%d message(s) waiting for replay\n", len(entries))
}
