package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"lancamentos/internal/cli"
	"lancamentos/internal/config"
	"lancamentos/internal/core"
	"lancamentos/internal/log"
	"lancamentos/internal/services"
	"lancamentos/internal/settings"
	"lancamentos/internal/storage"
)

const dateLayout = "02/01/2006"

const usage = `usage: lancamentos <command> [flags]

commands:
  version                         print the schema version of the store
  migrate                         open the store and bring it to the latest schema
  whoami                          print the signed-in user
  summary  -year Y -month M       month overview grouped by statement date
  card     -id UUID -year Y -month M
                                  entries billed on one card statement
  add      -desc D -amount A [-kind expense|income] [-date YYYY-MM-DD]
           -category ID [-card UUID | -account UUID] [-installments N]
                                  record an entry
  default-payment [-card UUID | -account UUID | -clear]
                                  show or change the default payment method
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.BootstrapLogger())
	logger := cli.SetupLogger(cfg)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	app := &app{
		cfg:    cfg,
		logger: logger,
		out:    os.Stdout,
	}
	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.ErrorContext(ctx, "Command failed", "command", os.Args[1], log.FieldError, err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.Config
	logger   *log.Logger
	out      io.Writer
	settings *settings.Store
	handle   *storage.Handle
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "version":
		return a.version(ctx)
	case "migrate":
		return a.migrate(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "summary":
		return a.summary(ctx, args)
	case "card":
		return a.card(ctx, args)
	case "add":
		return a.add(ctx, args)
	case "default-payment":
		return a.defaultPayment(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// open initializes settings and the store once per process.
func (a *app) open(ctx context.Context) *storage.Handle {
	if a.handle != nil {
		return a.handle
	}
	a.settings = cli.OpenSettings(a.logger, a.cfg)
	gate := cli.NewStoreGate(a.logger, a.cfg, a.settings)
	a.handle = cli.MustOpenStore(ctx, a.logger, gate)
	return a.handle
}

func (a *app) version(ctx context.Context) error {
	h, err := storage.Open(ctx, a.cfg.DBPath(storage.DBFileName), storage.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer h.Close()
	v, err := h.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "schema %d (latest %d)\n", v, storage.LatestVersion)
	return nil
}

func (a *app) migrate(ctx context.Context) error {
	h := a.open(ctx)
	defer h.Close()
	v, err := h.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s at schema %d\n", h.Path(), v)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	p, err := cli.NewConfigIdentity(a.cfg).CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n", p.Greeting(), p.Handle)
	return nil
}

func monthFlags(fs *flag.FlagSet) (*int, *int) {
	now := time.Now()
	year := fs.Int("year", now.Year(), "year")
	month := fs.Int("month", int(now.Month()), "month (1-12)")
	return year, month
}

func (a *app) summary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	year, month := monthFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	h := a.open(ctx)
	defer h.Close()
	overview, err := services.NewStatementService(h.Repositories(), a.logger).Month(ctx, *year, *month)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%04d-%02d  income %s  expense %s  balance %s\n",
		overview.Year, overview.Month,
		core.FormatAmount(overview.Income),
		core.FormatAmount(overview.Expense),
		core.FormatAmount(overview.Balance),
	)
	for _, g := range overview.Groups {
		fmt.Fprintf(a.out, "\n%s  %s\n", core.FormatDate(g.Date, g.Known, dateLayout), core.FormatAmount(g.Total))
		a.printViews(g.Entries)
	}
	return nil
}

func (a *app) card(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("card", flag.ContinueOnError)
	id := fs.String("id", "", "card external id")
	year, month := monthFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cardID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("%w: card id: %w", core.ErrParseFailure, err)
	}

	h := a.open(ctx)
	defer h.Close()
	st, err := services.NewStatementService(h.Repositories(), a.logger).CardStatement(ctx, cardID, *year, *month)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s  closes %s  due %s  total %s\n",
		st.Card.Name,
		st.Statement.Closing.Format(dateLayout),
		st.Statement.Due.Format(dateLayout),
		core.FormatAmount(st.Total),
	)
	a.printViews(st.Entries)
	return nil
}

func (a *app) printViews(views []core.EntryView) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, v := range views {
		e := v.Detail.Entry
		category := ""
		if v.Detail.Category != nil {
			category = v.Detail.Category.DisplayName()
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
			e.ExternalID.String()[:8],
			e.Description,
			category,
			e.InstallmentLabel,
			core.FormatAmount(v.SignedAmount),
		)
	}
	w.Flush()
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	desc := fs.String("desc", "", "description")
	amount := fs.String("amount", "", "amount, e.g. 89.90")
	kind := fs.String("kind", "expense", "expense or income")
	date := fs.String("date", time.Now().Format(time.DateOnly), "posting date YYYY-MM-DD")
	category := fs.Int64("category", 0, "category id")
	card := fs.String("card", "", "card external id")
	account := fs.String("account", "", "account external id")
	installments := fs.Int("installments", 0, "split into N monthly installments")
	paid := fs.Bool("paid", false, "mark as paid")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ne := services.NewEntry{
		Description: *desc,
		CategoryID:  *category,
		Paid:        *paid,
	}
	var err error
	if ne.Amount, err = core.ParseAmount(*amount); err != nil {
		return fmt.Errorf("%w: amount: %w", core.ErrParseFailure, err)
	}
	switch strings.ToLower(*kind) {
	case "expense":
		ne.Kind = core.Expense
	case "income":
		ne.Kind = core.Income
	default:
		return fmt.Errorf("%w: kind %q", core.ErrParseFailure, *kind)
	}
	posting, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		return fmt.Errorf("%w: date: %w", core.ErrParseFailure, err)
	}
	ne.Posting = core.DayMonthYear{Day: posting.Day(), Month: int(posting.Month()), Year: posting.Year()}
	if ne.Payment, err = paymentFlag(*card, *account); err != nil {
		return err
	}

	h := a.open(ctx)
	defer h.Close()
	svc := services.NewEntryService(h.Repositories(), a.settings, a.logger)

	var created []core.Entry
	if *installments > 1 {
		created, err = svc.CreateInstallments(ctx, ne, *installments)
	} else {
		var e core.Entry
		e, err = svc.Create(ctx, ne)
		created = []core.Entry{e}
	}
	if err != nil {
		return err
	}
	for _, e := range created {
		fmt.Fprintf(a.out, "%s  %02d/%02d/%04d  %s %s\n",
			e.ExternalID, e.Posting.Day, e.Posting.Month, e.Posting.Year,
			core.FormatAmount(e.Amount), e.InstallmentLabel)
	}
	return nil
}

func (a *app) defaultPayment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("default-payment", flag.ContinueOnError)
	card := fs.String("card", "", "card external id")
	account := fs.String("account", "", "account external id")
	forget := fs.Bool("clear", false, "forget the default")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s := cli.OpenSettings(a.logger, a.cfg)

	switch {
	case *forget:
		return s.ClearDefaultPaymentMethod(ctx)
	case *card != "" || *account != "":
		pm, err := paymentFlag(*card, *account)
		if err != nil {
			return err
		}
		return s.SetDefaultPaymentMethod(ctx, *pm)
	}

	pm, ok, err := s.DefaultPaymentMethod(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "no default payment method")
		return nil
	}
	fmt.Fprintf(a.out, "%s %s\n", pm.Kind, pm.ExternalID())
	return nil
}

// paymentFlag turns the -card/-account pair into a payment method. Neither set
// means nil, so the stored default applies.
func paymentFlag(card, account string) (*core.PaymentMethod, error) {
	if card != "" && account != "" {
		return nil, fmt.Errorf("%w: -card and -account are exclusive", core.ErrConstraintViolation)
	}
	var pm core.PaymentMethod
	switch {
	case card != "":
		id, err := uuid.Parse(card)
		if err != nil {
			return nil, fmt.Errorf("%w: card id: %w", core.ErrParseFailure, err)
		}
		pm = core.CardPayment(id)
	case account != "":
		id, err := uuid.Parse(account)
		if err != nil {
			return nil, fmt.Errorf("%w: account id: %w", core.ErrParseFailure, err)
		}
		pm = core.AccountPayment(id)
	default:
		return nil, nil
	}
	return &pm, nil
}
