// Command enjin-platform is a small console client for the Enjin
// platform SDK: it authenticates an app, prints platform and token
// information, and tails realtime transaction events.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enjincraft/platform-go/enjin"
	"github.com/enjincraft/platform-go/pkg/logger"
)

func main() {
	var (
		settingsPath = flag.String("settings", "", "Path to a YAML settings file (overrides the other flags)")
		baseURL      = flag.String("base-url", "https://kovan.cloud.enjin.io", "Platform API base URL")
		appID        = flag.Int("app-id", 0, "Application ID")
		secret       = flag.String("secret", "", "Application secret")
		accessToken  = flag.String("token", "", "Existing access token (skips the secret exchange)")
		debug        = flag.Bool("debug", false, "Log queries and payloads")
		listTokens   = flag.Bool("list-tokens", false, "List the app's tokens and exit")
		watch        = flag.Duration("watch", 0, "Tail realtime events for this long before exiting")
	)
	flag.Parse()

	cfg := enjin.Config{
		BaseURL: *baseURL,
		AppID:   *appID,
		Debug:   *debug,
	}
	if *settingsPath != "" {
		settings, err := enjin.LoadSettings(*settingsPath)
		if err != nil {
			log.Fatalf("load settings: %v", err)
		}
		cfg = settings.Config()
		if *secret == "" {
			*secret = settings.AppSecret
		}
	}
	cfg.Logger = logger.New("enjin-platform").WithLevel(logLevel(*debug))

	client, err := enjin.New(cfg)
	if err != nil {
		log.Fatalf("create client: %v", err)
	}
	defer client.CleanUp()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch {
	case *accessToken != "":
		err = client.StartPlatformWithToken(ctx, *accessToken)
	case *secret != "":
		err = client.StartPlatform(ctx, *secret)
	default:
		log.Fatal("either -secret or -token is required")
	}
	if err != nil {
		log.Fatalf("start platform: %v", err)
	}

	info, err := client.GetPlatformInfo(ctx)
	if err != nil {
		log.Fatalf("platform info: %v", err)
	}
	fmt.Printf("connected to %s (%s network, platform %s)\n", info.Name, info.Network, info.ID)

	if *listTokens {
		page, err := client.GetTokens(ctx, 1, 50)
		if err != nil {
			log.Fatalf("list tokens: %v", err)
		}
		for _, item := range page.Items {
			kind := "fungible"
			if item.NonFungible {
				kind = "non-fungible"
			}
			fmt.Printf("  %-20s %-12s supply=%s\n", item.ID, kind, item.TotalSupply)
		}
		fmt.Printf("%d tokens, page %d of %d\n", page.Cursor.Total, page.Cursor.CurrentPage, page.Cursor.PerPage)
		return
	}

	if *watch > 0 {
		client.BindEvent("platform-event", func(ev enjin.RequestEvent) {
			fmt.Printf("event %s model=%s tx=%d\n", ev.EventType, ev.Model, ev.Data.TransactionID)
		})

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-time.After(*watch):
		case <-sig:
		}
	}
}

func logLevel(debug bool) string {
	if debug {
		return "debug"
	}
	return "info"
}
