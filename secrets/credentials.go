package secrets

// Vault keys of the credentials secret.
const (
	KeyMercadoPagoAccessToken   = "mercadopago_access_token"
	KeyMercadoPagoWebhookSecret = "mercadopago_webhook_secret"
	KeyBrevoAPIKey              = "brevo_api_key"
	KeyGeminiAPIKey             = "gemini_api_key"
	KeySMTPPassword             = "smtp_password"
	KeyBypassVoucher            = "bypass_voucher"
)

// DefaultBypassVoucher applies when neither configuration nor Vault sets one.
const DefaultBypassVoucher = "jfm2!"

// Credentials are the external service secrets the server needs.
type Credentials struct {
	MercadoPagoAccessToken   string
	MercadoPagoWebhookSecret string
	BrevoAPIKey              string
	GeminiAPIKey             string
	SMTPPassword             string
	BypassVoucher            string
}

// Fill sets every empty credential that values provides and returns the keys
// it used. Values already configured through flags or the environment win.
func (c *Credentials) Fill(values map[string]string) []string {
	fields := []struct {
		key   string
		field *string
	}{
		{KeyMercadoPagoAccessToken, &c.MercadoPagoAccessToken},
		{KeyMercadoPagoWebhookSecret, &c.MercadoPagoWebhookSecret},
		{KeyBrevoAPIKey, &c.BrevoAPIKey},
		{KeyGeminiAPIKey, &c.GeminiAPIKey},
		{KeySMTPPassword, &c.SMTPPassword},
		{KeyBypassVoucher, &c.BypassVoucher},
	}

	var filled []string
	for _, f := range fields {
		if *f.field != "" {
			continue
		}
		if v := values[f.key]; v != "" {
			*f.field = v
			filled = append(filled, f.key)
		}
	}
	return filled
}

// ApplyDefaults sets the values used when neither flags, the environment nor
// Vault provided one. It must run after Fill.
func (c *Credentials) ApplyDefaults() {
	if c.BypassVoucher == "" {
		c.BypassVoucher = DefaultBypassVoucher
	}
}
