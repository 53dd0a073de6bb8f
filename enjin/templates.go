package enjin

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/enjincraft/platform-go/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

// templateSets holds the query template groups shipped with the SDK,
// loaded once per client.
type templateSets struct {
	user     *template.Set
	platform *template.Set
	identity *template.Set
}

func loadTemplates() (*templateSets, error) {
	fsys, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("enjin: open template resources: %w", err)
	}

	sets := &templateSets{}
	if sets.user, err = template.Load(fsys, "user"); err != nil {
		return nil, err
	}
	if sets.platform, err = template.Load(fsys, "platform"); err != nil {
		return nil, err
	}
	if sets.identity, err = template.Load(fsys, "identity"); err != nil {
		return nil, err
	}
	return sets, nil
}
