package enjin

import (
	"strings"
	"testing"

	"github.com/enjincraft/platform-go/template"
)

func TestLoadTemplates(t *testing.T) {
	sets, err := loadTemplates()
	if err != nil {
		t.Fatalf("loadTemplates() error: %v", err)
	}

	groups := []struct {
		set  *template.Set
		keys []string
	}{
		{sets.platform, []string{"AuthApp", "AuthPlayer", "GetPlatformInfo", "GetAppByID", "UpdateApp", "SetAllowance"}},
		{sets.user, []string{"CreateUser", "GetUserForId", "GetUserForName", "GetCurrentUser"}},
		{sets.identity, []string{"GetIdentity", "CreateIdentity", "UpdateIdentity", "DeleteIdentity", "UnlinkIdentity", "GetWalletBalances", "GetWalletBalancesForApp"}},
	}

	for _, g := range groups {
		for _, key := range g.keys {
			if _, ok := g.set.Query(key); !ok {
				t.Errorf("group %s is missing query %s", g.set.Group(), key)
			}
		}
		if g.set.Len() != len(g.keys) {
			t.Errorf("group %s has %d queries, want %d", g.set.Group(), g.set.Len(), len(g.keys))
		}
	}
}

func TestAuthAppTemplateRenders(t *testing.T) {
	sets, err := loadTemplates()
	if err != nil {
		t.Fatalf("loadTemplates() error: %v", err)
	}

	query, err := sets.platform.Render("AuthApp",
		template.NewBindings().SetInt("appId", 1234).Set("secret", "shhh"))
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(query, "appId:1234") || !strings.Contains(query, `appSecret:"shhh"`) {
		t.Errorf("rendered query = %s", query)
	}
	if strings.Contains(query, "$") {
		t.Errorf("rendered query still contains template tokens: %s", query)
	}
}
