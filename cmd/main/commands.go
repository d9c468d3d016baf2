package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"storefront/admin/internal/domain"
	"storefront/admin/internal/service"
	"storefront/admin/internal/table"

	"github.com/spf13/pflag"
)

type command struct {
	name  string
	usage string
	flags func(*pflag.FlagSet)
	run   func(ctx context.Context, svc *service.Service, flags *pflag.FlagSet) error
}

var commandOrder = []string{"tables", "list", "show", "edit", "delete", "bulk-delete", "history", "notices"}

var commands = map[string]command{
	"tables": {
		name:  "tables",
		usage: "list the admin tables",
		run:   runTables,
	},
	"list": {
		name:  "list",
		usage: "<table> [--filter text] [--sort column] [--desc] [--page n] [--hide col] [--show col]",
		flags: listFlags,
		run:   runList,
	},
	"show": {
		name:  "show",
		usage: "<table> <id>  print the route of the row's view page",
		run:   openRunner(table.ActionView),
	},
	"edit": {
		name:  "edit",
		usage: "<table> <id>  print the route of the row's edit page",
		run:   openRunner(table.ActionEdit),
	},
	"delete": {
		name:  "delete",
		usage: "<table> <id> [--cascade | --reparent] [--yes]",
		flags: deleteFlags,
		run:   runDelete,
	},
	"bulk-delete": {
		name:  "bulk-delete",
		usage: "<table> <id>... [--cascade | --reparent] [--yes]",
		flags: deleteFlags,
		run:   runBulkDelete,
	},
	"history": {
		name:  "history",
		usage: "[table] [--limit n]  recorded delete operations (needs the database)",
		flags: func(f *pflag.FlagSet) { f.Int("limit", 20, "operations to show") },
		run:   runHistory,
	},
	"notices": {
		name:  "notices",
		usage: "[--consumer name]  follow notices published by other sessions (needs redis)",
		flags: func(f *pflag.FlagSet) { f.String("consumer", defaultConsumer(), "consumer name in the group") },
		run:   runNotices,
	},
}

func args(flags *pflag.FlagSet, n int, names string) ([]string, error) {
	if flags.NArg() < n {
		return nil, fmt.Errorf("expected %s", names)
	}
	return flags.Args(), nil
}

func runTables(_ context.Context, svc *service.Service, _ *pflag.FlagSet) error {
	for _, name := range svc.Tables() {
		fmt.Println(name)
	}
	return nil
}

func listFlags(f *pflag.FlagSet) {
	f.String("filter", "", "case-insensitive text filter")
	f.String("sort", "", "column to sort by")
	f.Bool("desc", false, "sort descending")
	f.Bool("clear-sort", false, "drop the saved sort")
	f.Int("page", 0, "page to show, starting at 1")
	f.StringSlice("hide", nil, "columns to hide")
	f.StringSlice("show", nil, "hidden columns to show again")
}

func runList(ctx context.Context, svc *service.Service, flags *pflag.FlagSet) error {
	a, err := args(flags, 1, "<table>")
	if err != nil {
		return err
	}

	var q service.ListQuery
	if flags.Changed("filter") {
		filter, _ := flags.GetString("filter")
		q.Filter = &filter
	}
	q.Sort, _ = flags.GetString("sort")
	if desc, _ := flags.GetBool("desc"); desc {
		q.Direction = table.SortDesc
	}
	q.Page, _ = flags.GetInt("page")
	if flags.Changed("page-size") {
		q.PageSize, _ = flags.GetInt("page-size")
	}
	q.Hide, _ = flags.GetStringSlice("hide")
	q.Show, _ = flags.GetStringSlice("show")

	if clearSort, _ := flags.GetBool("clear-sort"); clearSort {
		t, err := svc.Table(a[0])
		if err != nil {
			return err
		}
		if err := t.Restore(ctx); err != nil {
			return err
		}
		t.ClearSort()
		if err := t.Persist(ctx); err != nil {
			return err
		}
	}

	snap, err := svc.List(ctx, a[0], q)
	if err != nil {
		return err
	}
	printSnapshot(os.Stdout, snap)
	return nil
}

func printSnapshot(out io.Writer, snap table.Snapshot) {
	if snap.LoadErr != nil {
		fmt.Fprintf(out, "error: %s\n\n", domain.UserMessage(snap.LoadErr))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"ID"}
	for _, col := range snap.Columns {
		title := strings.ToUpper(col.Title)
		if snap.Sort != nil && snap.Sort.Column == col.Key {
			title += map[table.SortDirection]string{table.SortAsc: " ↑", table.SortDesc: " ↓"}[snap.Sort.Direction]
		}
		header = append(header, title)
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, row := range snap.Rows {
		fmt.Fprintln(w, row.ID+"\t"+strings.Join(row.Cells, "\t"))
	}
	w.Flush()

	footer := fmt.Sprintf("page %d/%d, %d %s", snap.Page+1, snap.PageCount, snap.Total, snap.Table)
	if snap.Filter != "" {
		footer += fmt.Sprintf(", %d matching %q", snap.Filtered, snap.Filter)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, footer)
}

func openRunner(action table.Action) func(context.Context, *service.Service, *pflag.FlagSet) error {
	return func(ctx context.Context, svc *service.Service, flags *pflag.FlagSet) error {
		a, err := args(flags, 2, "<table> <id>")
		if err != nil {
			return err
		}
		route, err := svc.Open(ctx, a[0], a[1], action)
		if err != nil {
			return err
		}
		fmt.Println(route)
		return nil
	}
}

func deleteFlags(f *pflag.FlagSet) {
	f.Bool("cascade", false, "also delete every sub-item")
	f.Bool("reparent", false, "move sub-items to the top level")
	f.BoolP("yes", "y", false, "do not ask for confirmation")
}

func deleteOptions(flags *pflag.FlagSet) (service.DeleteOptions, error) {
	cascade, _ := flags.GetBool("cascade")
	reparent, _ := flags.GetBool("reparent")
	yes, _ := flags.GetBool("yes")

	var opts service.DeleteOptions
	switch {
	case cascade && reparent:
		return opts, errors.New("--cascade and --reparent are mutually exclusive")
	case cascade:
		opts.Decision = table.DecisionCascade
	case reparent:
		opts.Decision = table.DecisionReparent
	}
	if !yes {
		opts.Confirm = confirmPrompt(os.Stdin, os.Stdout)
	}
	return opts, nil
}

func confirmPrompt(in io.Reader, out io.Writer) func(*table.ConfirmationRequest) bool {
	return func(req *table.ConfirmationRequest) bool {
		labels := make([]string, 0, len(req.Targets))
		for _, t := range req.Targets {
			labels = append(labels, t.Label)
		}
		fmt.Fprintf(out, "Delete %d %s: %s", len(req.Targets), req.Table, strings.Join(labels, ", "))
		if d := req.Decision.String(); d != "" {
			fmt.Fprintf(out, " (%s sub-items)", d)
		}
		fmt.Fprint(out, "? [y/N] ")

		answer, _ := bufio.NewReader(in).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}
}

func runDelete(ctx context.Context, svc *service.Service, flags *pflag.FlagSet) error {
	a, err := args(flags, 2, "<table> <id>")
	if err != nil {
		return err
	}
	opts, err := deleteOptions(flags)
	if err != nil {
		return err
	}
	result, err := svc.Delete(ctx, a[0], a[1], opts)
	return report(result, err)
}

func runBulkDelete(ctx context.Context, svc *service.Service, flags *pflag.FlagSet) error {
	a, err := args(flags, 2, "<table> <id>...")
	if err != nil {
		return err
	}
	opts, err := deleteOptions(flags)
	if err != nil {
		return err
	}
	result, err := svc.BulkDelete(ctx, a[0], a[1:], opts)
	return report(result, err)
}

func report(result *domain.BulkOperationResult, err error) error {
	if errors.Is(err, service.ErrCancelled) {
		fmt.Println("Cancelled, nothing was deleted.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println(result.Summary())
	if result.Outcome() == domain.OutcomeAllFailed {
		return errors.New("nothing was deleted")
	}
	return nil
}

func runHistory(ctx context.Context, svc *service.Service, flags *pflag.FlagSet) error {
	limit, _ := flags.GetInt("limit")
	name := flags.Arg(0)

	ops, err := svc.History(ctx, name, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AT\tTABLE\tDECISION\tTARGETS\tRESULT")
	for _, op := range ops {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			op.At.Local().Format(time.DateTime),
			op.Table,
			op.Decision,
			strings.Join(op.Targets, ","),
			op.Result.Summary(),
		)
	}
	return w.Flush()
}

func runNotices(ctx context.Context, svc *service.Service, flags *pflag.FlagSet) error {
	consumer, _ := flags.GetString("consumer")
	return svc.TailNotices(ctx, consumer, func(n domain.Notice) {
		fmt.Printf("%s [%s] %s: %s\n", n.At.Local().Format(time.TimeOnly), n.Level, n.Table, n.Message)
	})
}

func defaultConsumer() string {
	host, err := os.Hostname()
	if err != nil {
		host = "storeadmin"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
