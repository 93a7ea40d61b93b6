package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type ruleFile struct {
	Groups []struct {
		Name  string `yaml:"name"`
		Rules []struct {
			Alert       string            `yaml:"alert"`
			Expr        string            `yaml:"expr"`
			For         string            `yaml:"for"`
			Labels      map[string]string `yaml:"labels"`
			Annotations map[string]string `yaml:"annotations"`
		} `yaml:"rules"`
	} `yaml:"groups"`
}

func TestAuthAlertRules(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "deploy", "prometheus", "alerts", "auth.yml"))
	require.NoError(t, err)

	var file ruleFile
	require.NoError(t, yaml.Unmarshal(data, &file))
	require.Len(t, file.Groups, 1)
	group := file.Groups[0]
	require.Equal(t, "auth", group.Name)

	const runbook = "docs/runbook-auth.md#"
	want := map[string]struct {
		severity string
		anchor   string
		metric   string
	}{
		"LoginFailureSpike":      {"warning", "login-failure-spike", "odyssey_auth_logins_total"},
		"RevokedRefreshReplay":   {"critical", "revoked-refresh-replay", "odyssey_auth_refreshes_total"},
		"AuthHighErrorRate":      {"critical", "high-error-rate", "odyssey_http_requests_total"},
		"RevocationPurgeFailing": {"warning", "revocation-purge", "odyssey_jobs_failures_total"},
		"RevocationPurgeStale":   {"warning", "revocation-purge", "odyssey_jobs_last_success_timestamp_seconds"},
	}
	require.Len(t, group.Rules, len(want))

	for _, rule := range group.Rules {
		t.Run(rule.Alert, func(t *testing.T) {
			exp, ok := want[rule.Alert]
			require.True(t, ok, "unexpected rule")
			assert.Equal(t, exp.severity, rule.Labels["severity"])
			assert.Equal(t, runbook+exp.anchor, rule.Annotations["runbook"])
			assert.NotEmpty(t, rule.Annotations["summary"])
			assert.NotEmpty(t, rule.Annotations["description"])
			assert.Contains(t, rule.Expr, exp.metric)

			hold, err := time.ParseDuration(rule.For)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, hold, time.Duration(0))
		})
	}
}
