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

	"github.com/rs/zerolog"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/app"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/config"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/domain"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/fee"
	infra "github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/infra/bigquery"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/logger"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/receipt"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/validation"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/workflow"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "catalog":
		err = runCatalog(os.Args[2:])
	case "quote":
		err = runQuote(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "pay":
		err = runPay(os.Args[2:])
	case "history":
		err = runHistory(os.Args[2:])
	case "lookup":
		err = runLookup(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Cash Elan payments CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  catalog   List categories, providers and load packages")
	fmt.Println("  quote     Show the fee and total for an amount")
	fmt.Println("  validate  Check bill or load details without paying")
	fmt.Println("  pay       Walk a payment through every step and print the receipt")
	fmt.Println("  history   List an owner's recorded payments (BigQuery)")
	fmt.Println("  lookup    Show a recorded payment by reference ID (BigQuery)")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// setup loads the config and builds the app. Logs go to stderr so stdout
// stays for results.
func setup(ctx context.Context, configPath string, opts ...app.Option) (*app.App, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Configure(logger.Options{Level: cfg.Log.Level, Console: true, Output: os.Stderr})
	a, err := app.New(ctx, cfg, log, opts...)
	if err != nil {
		return nil, log, err
	}
	return a, log, nil
}

func runCatalog(args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML config")
	category := fs.String("category", "", "only list this category")
	fs.Parse(args)

	a, _, err := setup(context.Background(), *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	categories := a.Machine.Catalog().Categories()
	if *category != "" {
		c, ok := domain.ParseCategory(*category)
		if !ok {
			return fmt.Errorf("unknown category %q", *category)
		}
		categories = []domain.Category{c}
	}
	return printCatalog(os.Stdout, a, categories)
}

func printCatalog(out io.Writer, a *app.App, categories []domain.Category) error {
	cat := a.Machine.Catalog()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tPROVIDER\tFEE RATE\tPACKAGES")
	for _, c := range categories {
		for _, p := range cat.Providers(c) {
			var codes []string
			for _, pkg := range cat.Packages(p.Name) {
				codes = append(codes, fmt.Sprintf("%s (%s)", pkg.Code, amount.Format(pkg.Price)))
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c, p.Name, cat.FeePolicy(p.Name).Rate, strings.Join(codes, ", "))
		}
	}
	return tw.Flush()
}

func runQuote(args []string) error {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML config")
	provider := fs.String("provider", "", "provider name (default fee rate when empty or unknown)")
	amt := fs.String("amount", "", "amount as typed, e.g. \"1,250.50\"")
	fs.Parse(args)

	a, _, err := setup(context.Background(), *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	d, ok := amount.Parse(*amt)
	if !ok {
		return errors.New("-amount is required")
	}
	policy := a.Machine.Catalog().FeePolicy(*provider)
	q, err := fee.Compute(d, policy)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Amount\t%s\n", amount.Format(q.Amount))
	fmt.Fprintf(tw, "Fee (%s)\t%s\n", policy.Rate, amount.Format(q.Fee))
	fmt.Fprintf(tw, "Total\t%s\n", amount.Format(q.Total))
	return tw.Flush()
}

// details are the flags shared by validate and pay.
type details struct {
	category string
	provider string
	pkg      string
	account  string
	name     string
	email    string
	amount   string
}

func (d *details) register(fs *flag.FlagSet) {
	fs.StringVar(&d.category, "category", "", "category, e.g. Electric or Load")
	fs.StringVar(&d.provider, "provider", "", "provider name")
	fs.StringVar(&d.pkg, "package", "", "load package code (load only)")
	fs.StringVar(&d.account, "account", "", "account or mobile number")
	fs.StringVar(&d.name, "name", "", "payer full name (bills only)")
	fs.StringVar(&d.email, "email", "", "payer email (optional)")
	fs.StringVar(&d.amount, "amount", "", "amount (bills only; load uses the package price)")
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML config")
	var in details
	in.register(fs)
	fs.Parse(args)

	a, _, err := setup(context.Background(), *configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	cat := a.Machine.Catalog()
	d := domain.NewDraft("", "")
	d.Category, _ = domain.ParseCategory(in.category)
	d.ProviderName = in.provider
	if p, ok := cat.Provider(in.provider); ok {
		d.ProviderName, d.Category = p.Name, p.Category
	}
	d.LoadPackage = in.pkg
	d.AccountOrMobileNumber = in.account
	d.PayerFullName = in.name
	d.PayerEmail = in.email
	if err := d.SetFeePolicy(cat.FeePolicy(d.ProviderName)); err != nil {
		return err
	}
	raw := in.amount
	if pkg, ok := cat.Package(d.ProviderName, in.pkg); ok && raw == "" {
		raw = amount.Format(pkg.Price)
	}
	d.SetAmountInput(raw)

	errs := a.Machine.Validator().Validate(d)
	if len(errs) == 0 {
		fmt.Printf("OK: %s to %s, total %s\n", amount.Format(d.NormalizedAmount()), d.ProviderName, amount.Format(d.TotalAmount()))
		return nil
	}
	printErrors(os.Stdout, errs)
	return errors.New("details are not valid")
}

func printErrors(out io.Writer, errs validation.ValidationErrors) {
	for _, e := range errs {
		fmt.Fprintf(out, "  %s: %s\n", e.Field, e.Message)
	}
}

func runPay(args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML config")
	owner := fs.String("owner", "", "owner ID")
	source := fs.String("source", "", "source account number")
	var in details
	in.register(fs)
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, log, err := setup(ctx, *configPath, app.WithRenderer(receipt.NewTextRenderer(os.Stdout)))
	if err != nil {
		return err
	}
	defer a.Close()
	ctx = logger.WithContext(ctx, log)

	s, err := a.Machine.Start(*owner, *source)
	if err != nil {
		return err
	}
	c, _ := domain.ParseCategory(in.category)
	if err := s.SelectCategory(c); err != nil {
		return err
	}
	if err := s.SelectProvider(in.provider); err != nil {
		return err
	}
	if s.State() == workflow.PackageSelection {
		if err := s.SelectPackage(in.pkg); err != nil {
			return err
		}
	}

	edits := []struct {
		v   string
		set func(string) (validation.ValidationErrors, error)
	}{
		{in.account, s.SetAccountOrMobileNumber},
		{in.name, s.SetPayerFullName},
		{in.email, s.SetPayerEmail},
		{in.amount, s.SetAmount},
	}
	for _, e := range edits {
		if e.v == "" {
			continue
		}
		if _, err := e.set(e.v); err != nil {
			return err
		}
	}

	if _, err := s.Submit(); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			fmt.Println("Payment details are not valid:")
			printErrors(os.Stdout, verrs)
		}
		return err
	}
	frozen := s.Frozen()
	log.Info().
		Str("reference_id", frozen.ReferenceID()).
		Str("total", amount.Format(frozen.TotalAmount())).
		Msg("Confirming payment")

	if _, err := s.Confirm(ctx); err != nil {
		return err
	}
	return nil
}

// repository opens the payments table named by the config.
func repository(ctx context.Context, configPath string) (*infra.Repository, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.BigQuery.ProjectID == "" {
		return nil, errors.New("no BigQuery project configured (set CASHELAN_GCP_PROJECT)")
	}
	return infra.NewRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML config")
	owner := fs.String("owner", "", "owner ID")
	limit := fs.Int("limit", 20, "maximum number of payments")
	fs.Parse(args)

	if *owner == "" {
		return errors.New("-owner is required")
	}

	ctx := context.Background()
	repo, err := repository(ctx, *configPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	rows, err := repo.ListPaymentsByOwner(ctx, *owner, *limit)
	if err != nil {
		return err
	}
	return printPayments(os.Stdout, rows)
}

func printPayments(out io.Writer, rows []*infra.PaymentRow) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tREFERENCE\tPROVIDER\tACCOUNT\tTOTAL\tSTATUS")
	for _, p := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s %s\t%s\n",
			p.PaymentDate,
			p.ReferenceID,
			p.ProviderName,
			logger.MaskAccount(p.AccountOrMobileNumber),
			amount.Format(infra.Decimal(p.TotalAmount)),
			p.Currency,
			p.Status,
		)
	}
	return tw.Flush()
}

func runLookup(args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML config")
	ref := fs.String("reference", "", "payment reference ID")
	fs.Parse(args)

	if *ref == "" {
		return errors.New("-reference is required")
	}

	ctx := context.Background()
	repo, err := repository(ctx, *configPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	p, err := repo.FindPaymentByReference(ctx, *ref)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("no payment with reference %s", *ref)
	}

	r := receipt.Receipt{
		TotalAmount:           infra.Decimal(p.TotalAmount),
		ReferenceID:           p.ReferenceID,
		AccountOrMobileNumber: p.AccountOrMobileNumber,
		ProviderName:          p.ProviderName,
		OwnerID:               p.OwnerID,
		Timestamp:             p.CreatedTS,
	}
	return receipt.NewTextRenderer(os.Stdout).Render(ctx, r)
}
