package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/offlinekit/listsync/data"
	"github.com/offlinekit/listsync/journal"
	"github.com/offlinekit/listsync/models"
	"github.com/offlinekit/listsync/remote/httpapi"
	"github.com/offlinekit/listsync/storage"
	"github.com/offlinekit/listsync/storage/boltdb"
	"github.com/offlinekit/listsync/sync"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Backend base URL")
	dbPath := flag.String("db", "listsync.db", "Path to local mirror database")
	listName := flag.String("list", "tasks", "Record type (list) to operate on")
	keyKind := flag.String("key", "numeric", "Key space of the list: numeric or string")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	typ := models.RecordType{Name: *listName, KeyKind: models.KeyNumeric, CacheMinutes: 5}
	if *keyKind == "string" {
		typ.KeyKind = models.KeyString
	}

	ctx := context.Background()

	tables := []string{typ.Name, journal.TableTransactions, journal.TablePayloads}
	db, err := boltdb.Open(ctx, *dbPath, tables)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	manager := storage.NewManager(db, storage.Options{})
	j := journal.NewService(manager, slog.Default())
	svc := data.NewService(manager.Store(typ), httpapi.NewClient(*serverURL, typ.Name), data.Options{
		Probe:   httpapi.NewProbe(*serverURL),
		Journal: j,
	})

	switch args[0] {
	case "pull":
		err = runPull(ctx, svc)
	case "get":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: listsync get <id>")
			os.Exit(1)
		}
		err = runGet(ctx, svc, typ, args[1])
	case "pending":
		err = runPending(ctx, j)
	case "sync":
		err = runSync(ctx, j, typ, svc)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runPull(ctx context.Context, svc data.Service) error {
	items, err := svc.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		fmt.Printf("%s\t%s\n", item.ID, item.Title)
	}
	fmt.Printf("%d item(s)\n", len(items))
	return nil
}

func runGet(ctx context.Context, svc data.Service, typ models.RecordType, raw string) error {
	id, err := parseKey(typ, raw)
	if err != nil {
		return err
	}
	item, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		fmt.Println("not found")
		return nil
	}
	fmt.Printf("%s\t%s\t(version %s)\n", item.ID, item.Title, item.Version)
	for name, value := range item.Fields {
		fmt.Printf("  %s: %+v\n", name, value)
	}
	return nil
}

func runPending(ctx context.Context, j journal.Service) error {
	count, err := j.PendingCount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d pending transaction(s)\n", count)
	return nil
}

func runSync(ctx context.Context, j journal.Service, typ models.RecordType, svc data.Service) error {
	resolve := func(recordType string) (data.Service, error) {
		if recordType != typ.Name {
			return nil, fmt.Errorf("no service for record type %q", recordType)
		}
		return svc, nil
	}
	engine := sync.NewEngine(j, resolve, sync.Events{
		ItemSynchronized: func(recordType string, oldID, newID models.Key) {
			fmt.Printf("synced %s %s -> %s\n", recordType, oldID, newID)
		},
	}, slog.Default())

	errs := engine.Run(ctx)
	for _, msg := range errs {
		fmt.Fprintf(os.Stderr, "sync: %s\n", msg)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d transaction(s) failed", len(errs))
	}
	fmt.Println("journal drained")
	return nil
}

func parseKey(typ models.RecordType, raw string) (models.Key, error) {
	if typ.KeyKind == models.KeyString {
		return models.StringKey(raw), nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return models.Key{}, fmt.Errorf("invalid numeric id %q", raw)
	}
	return models.NumericKey(n), nil
}

func printUsage() {
	fmt.Println(`Usage: listsync [flags] <command>

Commands:
  pull      Load the list into the local mirror and print it
  get <id>  Print one record
  pending   Show the number of journaled offline transactions
  sync      Replay the offline journal against the backend

Flags:
  -server <url>  Backend base URL (default http://localhost:8080)
  -db <path>     Local mirror database file (default listsync.db)
  -list <name>   Record type to operate on (default tasks)
  -key <kind>    Key space: numeric or string (default numeric)
  -version       Show version information`)
}

func printVersion() {
	fmt.Printf("listsync %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
}
