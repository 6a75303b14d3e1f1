package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/contract-analysis-backend/common"
	"github.com/ruteri/contract-analysis-backend/httpserver"
	"github.com/ruteri/contract-analysis-backend/secrets"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *httpserver.HTTPServerConfig {
	return &httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		AllowedOrigins:           cCtx.StringSlice(AllowedOriginsFlag.Name),
		Log:                      logger,
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		// Generation alone may take up to the generation timeout.
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cCtx.Duration(GenerationTimeoutFlag.Name) + cCtx.Duration(MailTimeoutFlag.Name) + 30*time.Second,
	}
}

// Credentials collects the secrets given through flags or the environment.
// Unset ones stay empty so a Vault overlay can fill them.
func Credentials(cCtx *cli.Context) secrets.Credentials {
	return secrets.Credentials{
		MercadoPagoAccessToken:   cCtx.String(MercadoPagoAccessTokenFlag.Name),
		MercadoPagoWebhookSecret: cCtx.String(MercadoPagoWebhookSecretFlag.Name),
		BrevoAPIKey:              cCtx.String(BrevoAPIKeyFlag.Name),
		GeminiAPIKey:             cCtx.String(GeminiAPIKeyFlag.Name),
		SMTPPassword:             cCtx.String(SMTPPasswordFlag.Name),
		BypassVoucher:            cCtx.String(BypassVoucherFlag.Name),
	}
}

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	Usage:   "address to listen on for API",
	EnvVars: []string{"LISTEN_ADDR"},
}

var AllowedOriginsFlag = &cli.StringSliceFlag{
	Name:    "allowed-origins",
	Value:   cli.NewStringSlice("https://dra-clausula.onrender.com"),
	Usage:   "origins allowed by CORS",
	EnvVars: []string{"ALLOWED_ORIGINS"},
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}

// Payment ledger and gate

var LedgerFlag = &cli.StringFlag{
	Name:    "ledger",
	Value:   "memory://",
	Usage:   "payment ledger location: memory://, sqlite:///path/to.db or dynamodb://[key:secret@]table?region=..&endpoint=..",
	EnvVars: []string{"LEDGER_URI"},
}
var GatePolicyFlag = &cli.StringFlag{
	Name:    "gate-policy",
	Value:   "ever_approved",
	Usage:   "payment gate policy: 'ever_approved' or 'latest'",
	EnvVars: []string{"GATE_POLICY"},
}
var BypassVoucherFlag = &cli.StringFlag{
	Name:    "bypass-voucher",
	Usage:   "voucher that skips the payment check, case-insensitive (default: Vault bypass_voucher, then 'jfm2!')",
	EnvVars: []string{"BYPASS_VOUCHER"},
}

// Analysis

var GeminiAPIKeyFlag = &cli.StringFlag{
	Name:    "gemini-api-key",
	Usage:   "Gemini API key",
	EnvVars: []string{"GEMINI_API_KEY"},
}
var GeminiModelFlag = &cli.StringFlag{
	Name:    "gemini-model",
	Value:   "gemini-flash-latest",
	Usage:   "Gemini model used for analysis",
	EnvVars: []string{"GEMINI_MODEL"},
}
var GenerationTimeoutFlag = &cli.DurationFlag{
	Name:  "generation-timeout",
	Value: 120 * time.Second,
	Usage: "timeout of one analysis generation",
}
var StagingDirFlag = &cli.StringFlag{
	Name:  "staging-dir",
	Usage: "directory for staged uploads (default: system temp dir)",
}
var MaxUploadMBFlag = &cli.Int64Flag{
	Name:  "max-upload-mb",
	Value: 20,
	Usage: "maximum upload size in megabytes",
}

// Delivery

var MailerFlag = &cli.StringFlag{
	Name:    "mailer",
	Value:   "brevo",
	Usage:   "mail transport: 'brevo', 'smtp' or 'none'",
	EnvVars: []string{"MAILER"},
}
var EmailFromFlag = &cli.StringFlag{
	Name:    "email-from",
	Value:   "Dra. Cláusula <draclausula@gmail.com>",
	Usage:   "sender of result emails",
	EnvVars: []string{"EMAIL_FROM"},
}
var BrevoAPIKeyFlag = &cli.StringFlag{
	Name:    "brevo-api-key",
	Usage:   "Brevo API key",
	EnvVars: []string{"BREVO_API_KEY"},
}
var SMTPHostFlag = &cli.StringFlag{
	Name:    "smtp-host",
	Usage:   "SMTP server host",
	EnvVars: []string{"SMTP_HOST"},
}
var SMTPPortFlag = &cli.IntFlag{
	Name:    "smtp-port",
	Value:   587,
	Usage:   "SMTP server port",
	EnvVars: []string{"SMTP_PORT"},
}
var SMTPUserFlag = &cli.StringFlag{
	Name:    "smtp-user",
	Usage:   "SMTP username",
	EnvVars: []string{"SMTP_USER"},
}
var SMTPPasswordFlag = &cli.StringFlag{
	Name:    "smtp-password",
	Usage:   "SMTP password",
	EnvVars: []string{"SMTP_PASSWORD"},
}
var MailTimeoutFlag = &cli.DurationFlag{
	Name:  "mail-timeout",
	Value: 30 * time.Second,
	Usage: "timeout of one email delivery",
}

// Payments

var MercadoPagoAccessTokenFlag = &cli.StringFlag{
	Name:    "mercadopago-access-token",
	Usage:   "Mercado Pago access token",
	EnvVars: []string{"MERCADOPAGO_ACCESS_TOKEN"},
}
var MercadoPagoWebhookSecretFlag = &cli.StringFlag{
	Name:    "mercadopago-webhook-secret",
	Usage:   "secret used to verify webhook signatures (empty disables verification)",
	EnvVars: []string{"MERCADOPAGO_WEBHOOK_SECRET"},
}
var NotificationURLFlag = &cli.StringFlag{
	Name:    "notification-url",
	Usage:   "public URL of the payment webhook endpoint",
	EnvVars: []string{"MERCADOPAGO_NOTIFICATION_URL"},
}
var ProviderTimeoutFlag = &cli.DurationFlag{
	Name:  "provider-timeout",
	Value: 30 * time.Second,
	Usage: "timeout of payment provider calls",
}

// Vault

var VaultAddrFlag = &cli.StringFlag{
	Name:    "vault-addr",
	Usage:   "Vault address; when set, missing credentials are read from Vault",
	EnvVars: []string{"VAULT_ADDR"},
}
var VaultTokenFlag = &cli.StringFlag{
	Name:    "vault-token",
	Usage:   "Vault token",
	EnvVars: []string{"VAULT_TOKEN"},
}
var VaultMountFlag = &cli.StringFlag{
	Name:  "vault-mount",
	Value: "secret",
	Usage: "Vault KV v2 mount path",
}
var VaultSecretPathFlag = &cli.StringFlag{
	Name:  "vault-secret-path",
	Value: "contract-analysis",
	Usage: "path of the credentials secret under the mount",
}

var ServiceFlags = []cli.Flag{
	ListenAddrFlag,
	AllowedOriginsFlag,
	LedgerFlag,
	GatePolicyFlag,
	BypassVoucherFlag,
	GeminiAPIKeyFlag,
	GeminiModelFlag,
	GenerationTimeoutFlag,
	StagingDirFlag,
	MaxUploadMBFlag,
	MailerFlag,
	EmailFromFlag,
	BrevoAPIKeyFlag,
	SMTPHostFlag,
	SMTPPortFlag,
	SMTPUserFlag,
	SMTPPasswordFlag,
	MailTimeoutFlag,
	MercadoPagoAccessTokenFlag,
	MercadoPagoWebhookSecretFlag,
	NotificationURLFlag,
	ProviderTimeoutFlag,
	VaultAddrFlag,
	VaultTokenFlag,
	VaultMountFlag,
	VaultSecretPathFlag,
}
