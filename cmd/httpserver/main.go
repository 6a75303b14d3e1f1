package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ruteri/contract-analysis-backend/analysis"
	"github.com/ruteri/contract-analysis-backend/cmd/flags"
	"github.com/ruteri/contract-analysis-backend/delivery"
	"github.com/ruteri/contract-analysis-backend/gate"
	"github.com/ruteri/contract-analysis-backend/httpserver"
	"github.com/ruteri/contract-analysis-backend/interfaces"
	"github.com/ruteri/contract-analysis-backend/ledger"
	"github.com/ruteri/contract-analysis-backend/orchestrator"
	"github.com/ruteri/contract-analysis-backend/payments"
	"github.com/ruteri/contract-analysis-backend/secrets"
	"github.com/ruteri/contract-analysis-backend/staging"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "contract-analysis-server",
		Usage:  "Serve the payment-gated contract analysis API",
		Flags:  append(flags.CommonFlags, flags.ServiceFlags...),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	creds := flags.Credentials(cCtx)
	if err := loadVaultCredentials(cCtx, &creds, logger); err != nil {
		logger.Error("Failed to load credentials from Vault", "err", err)
		return err
	}
	creds.ApplyDefaults()

	// Payment ledger
	var paymentLedger interfaces.PaymentLedger
	l, err := ledger.NewLedgerFactory(logger).LedgerFor(cCtx.String(flags.LedgerFlag.Name))
	if err != nil {
		logger.Error("Failed to create payment ledger", "err", err)
		return err
	}
	if l != nil {
		paymentLedger = l
		logger.Info("Payment ledger configured", "ledger", l.Name())
	} else {
		logger.Warn("No payment ledger configured, only the bypass voucher grants access")
	}

	policy, err := gate.ParsePolicy(cCtx.String(flags.GatePolicyFlag.Name))
	if err != nil {
		return err
	}
	paymentGate := gate.NewGate(creds.BypassVoucher, policy, paymentLedger, logger)

	stager, err := staging.NewStager(cCtx.String(flags.StagingDirFlag.Name), logger)
	if err != nil {
		logger.Error("Failed to create stager", "err", err)
		return err
	}

	// Analysis
	var generator interfaces.Generator
	if creds.GeminiAPIKey != "" {
		gemini, err := analysis.NewGeminiGenerator(cCtx.Context, creds.GeminiAPIKey, cCtx.String(flags.GeminiModelFlag.Name), logger)
		if err != nil {
			logger.Error("Failed to create Gemini client", "err", err)
			return err
		}
		defer gemini.Close()
		generator = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, analyses will fail")
	}
	invoker := analysis.NewInvoker(generator, cCtx.Duration(flags.GenerationTimeoutFlag.Name), logger)

	// Delivery
	mailer, err := configureMailer(cCtx, creds)
	if err != nil {
		return err
	}
	if mailer == nil {
		logger.Warn("No mailer configured, results will not be emailed")
	}
	notifier := delivery.NewNotifier(mailer, cCtx.Duration(flags.MailTimeoutFlag.Name), logger)

	// Payments
	var provider interfaces.PaymentProvider
	mp, err := payments.NewMercadoPagoProvider(creds.MercadoPagoAccessToken, cCtx.String(flags.NotificationURLFlag.Name))
	switch {
	case err == nil:
		provider = mp
	case creds.MercadoPagoAccessToken == "":
		logger.Warn("MERCADOPAGO_ACCESS_TOKEN not set, checkouts will fail")
	default:
		logger.Error("Failed to create Mercado Pago client", "err", err)
		return err
	}
	paymentService := payments.NewService(provider, paymentLedger, creds.MercadoPagoWebhookSecret, cCtx.Duration(flags.ProviderTimeoutFlag.Name), logger)

	orch := orchestrator.New(orchestrator.Dependencies{
		Gate:     paymentGate,
		Stager:   stager,
		Analyzer: invoker,
		Notifier: notifier,
		Log:      logger,
	})

	handler := httpserver.NewHandler(orch, paymentService, paymentGate, cCtx.Int64(flags.MaxUploadMBFlag.Name)<<20, logger)
	serverCfg := flags.ConfigureServer(cCtx, logger)
	serverCfg.Ledger = paymentLedger
	server, err := httpserver.New(serverCfg, handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	logger.Info("Starting server", "gatePolicy", policy, "staging", stager.Dir())
	server.RunInBackground()

	// Wait for termination signal
	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")
	return nil
}

func loadVaultCredentials(cCtx *cli.Context, creds *secrets.Credentials, logger *slog.Logger) error {
	addr := cCtx.String(flags.VaultAddrFlag.Name)
	if addr == "" {
		return nil
	}

	source, err := secrets.NewVaultSource(addr, cCtx.String(flags.VaultTokenFlag.Name), cCtx.String(flags.VaultMountFlag.Name), cCtx.String(flags.VaultSecretPathFlag.Name), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cCtx.Context, 30*time.Second)
	defer cancel()

	values, err := source.Fetch(ctx)
	if err != nil {
		return err
	}
	filled := creds.Fill(values)
	logger.Info("Credentials loaded from Vault", "keys", strings.Join(filled, ","))
	return nil
}

func configureMailer(cCtx *cli.Context, creds secrets.Credentials) (interfaces.Mailer, error) {
	sender := delivery.ParseSender(cCtx.String(flags.EmailFromFlag.Name))

	switch kind := cCtx.String(flags.MailerFlag.Name); kind {
	case "brevo":
		if creds.BrevoAPIKey == "" {
			return nil, nil
		}
		return delivery.NewBrevoMailer(creds.BrevoAPIKey, sender, ""), nil
	case "smtp":
		if cCtx.String(flags.SMTPHostFlag.Name) == "" {
			return nil, fmt.Errorf("--%s is required with --mailer=smtp", flags.SMTPHostFlag.Name)
		}
		return delivery.NewSMTPMailer(delivery.SMTPConfig{
			Host:     cCtx.String(flags.SMTPHostFlag.Name),
			Port:     cCtx.Int(flags.SMTPPortFlag.Name),
			Username: cCtx.String(flags.SMTPUserFlag.Name),
			Password: creds.SMTPPassword,
			Timeout:  cCtx.Duration(flags.MailTimeoutFlag.Name),
		}, sender), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown mailer %q", kind)
	}
}
