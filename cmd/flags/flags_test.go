package flags

import (
	"testing"

	"github.com/ruteri/contract-analysis-backend/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func credentialsFromArgs(t *testing.T, args ...string) secrets.Credentials {
	t.Helper()

	var creds secrets.Credentials
	app := &cli.App{
		Name:  "test",
		Flags: append(append([]cli.Flag{}, CommonFlags...), ServiceFlags...),
		Action: func(cCtx *cli.Context) error {
			creds = Credentials(cCtx)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return creds
}

func TestBypassVoucherPrecedence(t *testing.T) {
	t.Setenv("BYPASS_VOUCHER", "")

	testCases := []struct {
		name  string
		args  []string
		vault map[string]string
		want  string
	}{
		{
			name:  "vault fills unset flag",
			vault: map[string]string{secrets.KeyBypassVoucher: "vault-secret"},
			want:  "vault-secret",
		},
		{
			name: "default when neither is set",
			want: secrets.DefaultBypassVoucher,
		},
		{
			name:  "flag wins over vault",
			args:  []string{"--bypass-voucher", "from-flag"},
			vault: map[string]string{secrets.KeyBypassVoucher: "vault-secret"},
			want:  "from-flag",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			creds := credentialsFromArgs(t, tc.args...)
			creds.Fill(tc.vault)
			creds.ApplyDefaults()

			assert.Equal(t, tc.want, creds.BypassVoucher)
		})
	}
}

func TestBypassVoucherFromEnvironment(t *testing.T) {
	t.Setenv("BYPASS_VOUCHER", "from-env")

	creds := credentialsFromArgs(t)
	assert.Equal(t, []string(nil), creds.Fill(map[string]string{secrets.KeyBypassVoucher: "vault-secret"}))
	assert.Equal(t, "from-env", creds.BypassVoucher)
}
