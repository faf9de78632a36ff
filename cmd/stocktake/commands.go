package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"stocktake/internal/core"
	"stocktake/pkg/domain"
	"strings"
	"text/tabwriter"
)

const dateTimeLayout = "2006-01-02 15:04"

func (a *app) subFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) table(fn func(w io.Writer)) {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fn(tw)
	_ = tw.Flush()
}

func (a *app) printProducts(products []core.Product) {
	a.table(func(w io.Writer) {
		_, _ = fmt.Fprintln(w, "CODE\tDESCRIPTION\tCATEGORY")
		for _, p := range products {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Code, p.Description, p.Category)
		}
	})
}

func (a *app) catalogue(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.errorf("usage: stocktake catalogue list|search|add|edit|delete|import\n")
		return 2
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		catalogue, err := a.svc.Catalogue(ctx)
		if err != nil {
			return a.fail(err)
		}
		if len(catalogue) == 0 {
			a.printf("Catalogue is empty.\n")
			return 0
		}
		a.printProducts(catalogue)
		a.printf("%d products\n", len(catalogue))
		return 0
	case "search":
		query := strings.Join(rest, " ")
		hits, err := a.svc.SearchCatalogue(ctx, query)
		if err != nil {
			return a.fail(err)
		}
		if len(hits) == 0 {
			a.printf("No products match %q.\n", query)
			return 0
		}
		a.printProducts(hits)
		return 0
	case "add":
		return a.catalogueAdd(ctx, rest)
	case "edit":
		return a.catalogueEdit(ctx, rest)
	case "delete", "rm":
		if len(rest) != 1 {
			a.errorf("usage: stocktake catalogue delete CODE\n")
			return 2
		}
		removed, err := a.svc.DeleteProduct(ctx, rest[0])
		if err != nil {
			return a.fail(err)
		}
		if !removed {
			return a.fail(domain.ProductNotFoundError{Code: domain.CanonicalCode(rest[0])})
		}
		a.printf("Deleted %s.\n", domain.CanonicalCode(rest[0]))
		return 0
	case "import":
		return a.catalogueImport(ctx, rest)
	default:
		a.errorf("unknown catalogue command %q\n", sub)
		return 2
	}
}

func (a *app) catalogueAdd(ctx context.Context, args []string) int {
	fs := a.subFlags("catalogue add")
	overwrite := fs.Bool("overwrite", false, "replace an existing product with the same code")
	category := fs.String("category", "", "optional category")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 2 {
		a.errorf("usage: stocktake catalogue add [-overwrite] [-category C] CODE DESCRIPTION\n")
		return 2
	}
	p := core.Product{Code: fs.Arg(0), Description: strings.Join(fs.Args()[1:], " "), Category: *category}
	saved, err := a.svc.AddProduct(ctx, p, *overwrite)
	var dup domain.DuplicateCodeError
	if errors.As(err, &dup) {
		a.errorf("error: %v (use -overwrite to replace it)\n", err)
		return 1
	}
	if err != nil {
		return a.fail(err)
	}
	a.printf("Saved %s: %s\n", saved.Code, saved.Description)
	return 0
}

func (a *app) catalogueEdit(ctx context.Context, args []string) int {
	fs := a.subFlags("catalogue edit")
	category := fs.String("category", "", "optional category")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 3 {
		a.errorf("usage: stocktake catalogue edit [-category C] OLD_CODE NEW_CODE DESCRIPTION\n")
		return 2
	}
	p := core.Product{Code: fs.Arg(1), Description: strings.Join(fs.Args()[2:], " "), Category: *category}
	saved, err := a.svc.EditProduct(ctx, fs.Arg(0), p)
	if err != nil {
		return a.fail(err)
	}
	a.printf("Updated %s: %s\n", saved.Code, saved.Description)
	return 0
}

func (a *app) catalogueImport(ctx context.Context, args []string) int {
	fs := a.subFlags("catalogue import")
	key := fs.String("blob", "", "import the document stored at this blob key instead of a file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	var (
		catalogue core.Catalogue
		err       error
	)
	switch {
	case *key != "":
		catalogue, err = a.svc.ImportCatalogueBlob(ctx, *key)
	case fs.NArg() == 1 && fs.Arg(0) == "-":
		catalogue, err = a.svc.ImportCatalogue(ctx, a.stdin)
	case fs.NArg() == 1:
		catalogue, err = a.importFile(ctx, fs.Arg(0))
	default:
		a.errorf("usage: stocktake catalogue import FILE|-|-blob KEY\n")
		return 2
	}
	if err != nil {
		return a.fail(err)
	}
	a.printf("Imported %d products.\n", len(catalogue))
	return 0
}

func (a *app) importFile(ctx context.Context, path string) (core.Catalogue, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, domain.UnreadableFileError{Name: path, Err: err}
	}
	defer func() { _ = f.Close() }()
	return a.svc.ImportCatalogue(ctx, f)
}

func (a *app) report(ctx context.Context, args []string) int {
	fs := a.subFlags("report")
	var q core.ReportQuery
	fs.StringVar(&q.From, "from", "", "start date YYYY-MM-DD (default 30 days ago)")
	fs.StringVar(&q.To, "to", "", "end date YYYY-MM-DD, inclusive (default today)")
	fs.StringVar(&q.Filter, "q", "", "only count items whose code or description contains this text")
	fs.BoolVar(&q.All, "all", false, "ignore the default date window")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	report, err := a.svc.Report(ctx, q)
	if err != nil {
		return a.fail(err)
	}
	if *asJSON {
		return a.writeJSON(report)
	}
	a.printf("Orders %s\n", report.Range)
	if len(report.Rows) == 0 {
		a.printf("No items ordered in this range.\n")
		return 0
	}
	a.table(func(w io.Writer) {
		_, _ = fmt.Fprintln(w, "CODE\tDESCRIPTION\tQTY")
		for _, row := range report.Rows {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", row.Code, row.Description, row.Quantity)
		}
	})
	a.printf("Total %d\n", report.TotalQuantity())
	return 0
}

func (a *app) lastOrder(ctx context.Context, args []string) int {
	fs := a.subFlags("last-order")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	order, err := a.svc.LastOrder(ctx)
	if errors.Is(err, domain.ErrNoOrders) {
		a.printf("No order history available.\n")
		return 0
	}
	if err != nil {
		return a.fail(err)
	}
	if *asJSON {
		return a.writeJSON(order)
	}
	a.printf("Order %s placed %s\n", order.ID, order.Date.Local().Format(dateTimeLayout))
	a.printCart(order.Items)
	return 0
}

func (a *app) printCart(items []core.CartItem) {
	a.table(func(w io.Writer) {
		_, _ = fmt.Fprintln(w, "CODE\tDESCRIPTION\tQTY")
		total := 0
		for _, item := range items {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", item.Code, item.Description, item.Quantity)
			total += item.Quantity
		}
		_, _ = fmt.Fprintf(w, "\tTotal\t%d\n", total)
	})
}

func (a *app) exports(ctx context.Context, args []string) int {
	if len(args) > 0 {
		a.errorf("usage: stocktake exports\n")
		return 2
	}
	infos, err := a.svc.Exports(ctx)
	if err != nil {
		return a.fail(err)
	}
	if len(infos) == 0 {
		a.printf("No exports yet.\n")
		return 0
	}
	a.table(func(w io.Writer) {
		_, _ = fmt.Fprintln(w, "KEY\tSIZE\tORDER\tURL")
		for _, info := range infos {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", info.Key, info.Size, info.Metadata["order-id"], info.URL)
		}
	})
	return 0
}

func (a *app) writeJSON(v any) int {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return a.fail(err)
	}
	return 0
}
