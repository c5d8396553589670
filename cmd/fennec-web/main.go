package main

import (
	"flag"
	"log"

	"github.com/fennec-ai/fennec/internal/web"
	"github.com/fennec-ai/fennec/pkg/assistant"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	configPath := flag.String("config", "", "JSON config file (default: environment variables)")
	flag.Parse()

	var (
		cfg *assistant.Config
		err error
	)
	if *configPath != "" {
		cfg, err = assistant.LoadConfigFromJSON(*configPath)
	} else {
		cfg, err = assistant.LoadConfigFromEnv()
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	bot, err := assistant.New(cfg)
	if err != nil {
		log.Fatalf("failed to start assistant: %v", err)
	}
	defer bot.Close()

	server := web.NewServer(bot)
	log.Printf("fennec web listening on %s", *addr)
	if err := server.ListenAndServe(*addr); err != nil {
		log.Fatal(err)
	}
}
