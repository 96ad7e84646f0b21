package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Show prints recent persisted explanations, riskiest first.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show explanations")
	}
	defer closeStore()

	rows, err := store.ListRecentExplanations(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "no explanations found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Batch\tIndex\tScore\tFraud\tDecision\tCreated (UTC)")

	for _, row := range rows {
		fmt.Fprintf(
			writer,
			"%s\t%d\t%.4f\t%d\t%s\t%s\n",
			sanitizeInline(row.Batch),
			row.RecordIndex,
			row.RiskScore,
			row.FraudLabel,
			row.Decision,
			row.CreatedAt.UTC().Format(time.RFC3339),
		)
	}

	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
