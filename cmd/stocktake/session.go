package main

import (
	"bufio"
	"context"
	"stocktake/pkg/domain"
	"strconv"
	"strings"
)

const sessionHelp = `Scan or type a product code, then enter a quantity (blank keeps the suggested one).
  :search TEXT  find catalogue products     :pick CODE  choose a catalogue product
  :edit CODE    change a cart quantity      :rm CODE    remove a cart line
  :list         show the cart               :clear      empty the cart
  :cancel       drop the pending item       :done       export and record the order
  :quit         leave without saving
`

// scan runs a line-oriented scanning session. It returns when the order is
// finalized, the user quits or input ends.
func (a *app) scan(ctx context.Context, args []string) int {
	fs := a.subFlags("scan")
	quiet := fs.Bool("quiet", false, "do not print the help banner")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !*quiet {
		a.printf("%s", sessionHelp)
	}
	lines := bufio.NewScanner(a.stdin)
	a.prompt()
	for lines.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(lines.Text())
		done, code := a.sessionLine(ctx, line)
		if done {
			return code
		}
		a.prompt()
	}
	if err := lines.Err(); err != nil {
		return a.fail(err)
	}
	if n := len(a.svc.Cart()); n > 0 {
		a.printf("\nSession ended without finalizing; %d cart lines discarded.\n", n)
	}
	return 0
}

func (a *app) prompt() {
	if p, ok := a.svc.Pending(); ok {
		verb := "Quantity"
		if p.EditMode {
			verb = "New quantity"
		}
		a.printf("%s for %s (%s) [%d]: ", verb, p.Code, p.Description, p.Quantity)
		return
	}
	a.printf("scan> ")
}

// sessionLine handles one input line and reports whether the session is over.
func (a *app) sessionLine(ctx context.Context, line string) (bool, int) {
	if strings.HasPrefix(line, ":") {
		return a.sessionCommand(ctx, line)
	}
	if p, ok := a.svc.Pending(); ok {
		if line == "" {
			line = strconv.Itoa(p.Quantity)
		}
		item, err := a.svc.ConfirmQuantity(ctx, line)
		if err != nil {
			a.errorf("%v\n", err)
			return false, 0
		}
		a.printf("%s x %d\n", item.Code, item.Quantity)
		return false, 0
	}
	if line == "" {
		return false, 0
	}
	if _, err := a.svc.Scan(ctx, line); err != nil {
		a.errorf("%v\n", err)
	}
	return false, 0
}

func (a *app) sessionCommand(ctx context.Context, line string) (bool, int) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":help", ":h":
		a.printf("%s", sessionHelp)
	case ":search":
		hits, err := a.svc.SearchCatalogue(ctx, arg)
		if err != nil {
			a.errorf("%v\n", err)
			break
		}
		if len(hits) == 0 {
			a.printf("No products match %q.\n", arg)
			break
		}
		a.printProducts(hits)
	case ":pick":
		if _, err := a.svc.SelectProduct(ctx, arg); err != nil {
			a.errorf("%v\n", err)
		}
	case ":edit":
		if _, err := a.svc.EditCartItem(ctx, arg); err != nil {
			a.errorf("%v\n", err)
		}
	case ":rm":
		removed, err := a.svc.RemoveCartItem(ctx, arg)
		switch {
		case err != nil:
			a.errorf("%v\n", err)
		case !removed:
			a.errorf("%s is not in the cart\n", domain.CanonicalCode(arg))
		default:
			a.printf("Removed %s.\n", domain.CanonicalCode(arg))
		}
	case ":list":
		items := a.svc.Cart()
		if len(items) == 0 {
			a.printf("Cart is empty.\n")
			break
		}
		a.printCart(items)
	case ":clear":
		if err := a.svc.ClearCart(ctx); err != nil {
			a.errorf("%v\n", err)
		}
		a.printf("Cart cleared.\n")
	case ":cancel":
		if err := a.svc.CancelPending(); err != nil {
			a.errorf("%v\n", err)
		}
	case ":done":
		result, err := a.svc.FinalizeOrder(ctx)
		if err != nil {
			a.errorf("%v\n", err)
			return false, 0
		}
		a.printf("Order %s recorded with %d lines.\nExported %s\n", result.Order.ID, len(result.Order.Items), result.Export.Key)
		if result.Export.URL != "" {
			a.printf("%s\n", result.Export.URL)
		}
		return true, 0
	case ":quit", ":q":
		return true, 0
	default:
		a.errorf("unknown command %s (try :help)\n", cmd)
	}
	return false, 0
}
