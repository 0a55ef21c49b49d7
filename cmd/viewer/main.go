// Command viewer opens the message store read-only and renders the recent
// window as a table. Handy next to a running server: BypassLockGuard allows
// opening while the server holds the badger lock.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"pairchat/repositories"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	Limit          int    `env:"VIEWER_LIMIT,default=50"`
}

func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in read-only mode
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// 3. Walk the timeline newest-first and render oldest-first
	now := time.Now().UTC()
	var rows [][]string
	expiredCount := 0
	err = db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte("msg:")
		seekKey := append([]byte("msg:"), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(rows) == config.Limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				message, err := repositories.DecodeMessage(value)
				if err != nil {
					return err
				}
				if message.Expired(now) {
					expiredCount++
					return nil
				}
				rows = append([][]string{{
					message.ID.String()[:8],
					message.Sender.String(),
					truncate(message.Text, 60),
					strconv.Itoa(len(message.Attachments)),
					message.CreatedAt.Format("15:04:05"),
					time.Until(message.ExpiresAt).Round(time.Second).String(),
				}}, rows...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to read messages: %v", err)
	}

	color.Greenln("pairchat viewer (read-only)")
	if expiredCount > 0 {
		color.Yellowln(fmt.Sprintf("%d expired message(s) awaiting purge", expiredCount))
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Sender", "Text", "Att", "Created", "Expires in"})
	table.AppendBulk(rows)
	table.Render()
}

// truncate shortens text to at most limit runes, marking the cut with an
// ellipsis. Cutting on runes keeps multi-byte characters intact.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
