// Command operator is the interactive terminal shell for a single
// warehouse operator: a menu loop that drives the scan workflow with a
// keyboard-wedge scanner (or typed codes) and y/n confirmations.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	excelaudit "github.com/bkante/entrepot/internal/audit/excel"
	"github.com/bkante/entrepot/internal/config"
	"github.com/bkante/entrepot/internal/domain/models"
	"github.com/bkante/entrepot/internal/repository/sqlite"
	workflowsvc "github.com/bkante/entrepot/internal/service/workflow"
	"github.com/bkante/entrepot/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	store, err := sqlite.NewStore(cfg.Store.SQLitePath)
	if err != nil {
		baseLogger.Fatal("failed to init inventory store", zap.Error(err))
	}
	defer func() { _ = store.Close(context.Background()) }()

	auditLog, err := excelaudit.NewSink(cfg.Audit.ExcelPath, baseLogger.Named("audit.excel"))
	if err != nil {
		baseLogger.Fatal("failed to init audit log", zap.Error(err))
	}

	console := &consoleIO{reader: bufio.NewReader(os.Stdin)}
	svc := workflowsvc.NewService(store, auditLog, console, console, baseLogger.Named("svc.workflow"))

	fmt.Println("Warehouse operator console. Ready.")
	run(svc, console)
}

func run(svc *workflowsvc.Service, console *consoleIO) {
	ctx := context.Background()

	for {
		fmt.Printf("\n[state: %s]\n", svc.State())
		fmt.Println("  1) scan pallet label (add / move)")
		fmt.Println("  2) scan slot label (complete pending operation)")
		fmt.Println("  3) delete pallet (delivery)")
		fmt.Println("  4) search inventory")
		fmt.Println("  5) reset session")
		fmt.Println("  q) quit")

		choice := console.readLine("choice> ")
		switch choice {
		case "1":
			report(svc.ScanProduct(ctx))
		case "2":
			report(svc.ScanLocation(ctx))
		case "3":
			if err := svc.BeginDelete(ctx); err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			report(svc.ScanDelete(ctx))
		case "4":
			search(ctx, svc, console)
		case "5":
			svc.Reset()
			fmt.Println("session reset")
		case "q", "quit", "exit":
			fmt.Println("bye")
			return
		default:
			fmt.Println("unknown choice")
		}
	}
}

func report(outcome workflowsvc.Outcome, err error) {
	if err != nil {
		var occupied *workflowsvc.LocationOccupiedError
		switch {
		case errors.As(err, &occupied):
			fmt.Printf("slot taken by pallet %s, scan another slot\n", occupied.OccupiedBy)
		case errors.Is(err, workflowsvc.ErrInvalidLocation):
			fmt.Println("slot label unreadable, scan it again")
		default:
			fmt.Printf("error: %v\n", err)
		}
		return
	}

	switch outcome.Status {
	case workflowsvc.StatusAwaitingLocationNew:
		fmt.Printf("pallet %s accepted, scan its slot next\n", outcome.Record.PalletID)
	case workflowsvc.StatusAwaitingLocationMove:
		fmt.Printf("moving pallet %s, scan the new slot next\n", outcome.Record.PalletID)
	case workflowsvc.StatusAdded:
		fmt.Printf("pallet %s placed at %s\n", outcome.Record.PalletID, outcome.Record.LocationID)
	case workflowsvc.StatusMoved:
		fmt.Printf("pallet %s moved to %s\n", outcome.Record.PalletID, outcome.Record.LocationID)
	case workflowsvc.StatusDeleted:
		fmt.Printf("pallet %s removed from inventory\n", outcome.Record.PalletID)
	case workflowsvc.StatusAborted:
		fmt.Println("operation cancelled")
	}

	if outcome.AuditErr != nil {
		fmt.Printf("warning: %v\n", outcome.AuditErr)
	}
}

func search(ctx context.Context, svc *workflowsvc.Service, console *consoleIO) {
	query := console.readLine("search term> ")
	if query == "" {
		fmt.Println("empty search term")
		return
	}

	by := models.SearchByLot
	if strings.HasPrefix(console.readLine("by lot or product? [l/p]> "), "p") {
		by = models.SearchByProduct
	}

	records, err := svc.Search(ctx, query, by)
	if err != nil {
		fmt.Printf("search failed: %v\n", err)
		return
	}
	if len(records) == 0 {
		fmt.Printf("no results for %q\n", query)
		return
	}

	fmt.Printf("%d result(s):\n", len(records))
	for _, rec := range records {
		location := rec.LocationID
		if location == "" {
			location = "N/A"
		}
		fmt.Printf("  pallet %s | %s | lot %s | slot %s | expires %s\n",
			rec.PalletID, rec.ProductName, rec.LotID, location,
			rec.ExpiryDate.Format(models.ExpiryDateFormat))
	}
}

// consoleIO implements both the scanner and the decider on top of a single
// shared stdin reader, so menu input, scans and confirmations never fight
// over the buffer.
type consoleIO struct {
	reader *bufio.Reader
}

func (c *consoleIO) readLine(prompt string) string {
	fmt.Print(prompt)
	line, _ := c.reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// Scan implements scanner.Scanner.
func (c *consoleIO) Scan(context.Context) (string, error) {
	code := c.readLine("scan> ")
	if code == "" {
		return "", errors.New("no code entered")
	}
	return code, nil
}

// Decide implements workflow.Decider.
func (c *consoleIO) Decide(_ context.Context, req models.DecisionRequest) bool {
	switch req.Kind {
	case models.DecisionMovePallet:
		fmt.Printf("pallet %s (lot %s) is already at slot %s.\n",
			req.Record.PalletID, req.Record.LotID, orNA(req.CurrentLocation))
		fmt.Println("move it to a new slot?")
	case models.DecisionAddToLot:
		fmt.Printf("lot %s already exists (slots: %s).\n",
			req.Record.LotID, joinOrNA(req.LotLocations))
		fmt.Printf("add new pallet %s to this lot?\n", req.Record.PalletID)
	case models.DecisionConfirmDelete:
		fmt.Printf("delete pallet %s (%s, lot %s) from slot %s?\n",
			req.Record.PalletID, req.Record.ProductName, req.Record.LotID,
			orNA(req.CurrentLocation))
	}

	answer := c.readLine("confirm [y/N]> ")
	return answer == "y" || answer == "yes"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func joinOrNA(values []string) string {
	if len(values) == 0 {
		return "no known slots"
	}
	return strings.Join(values, ", ")
}
