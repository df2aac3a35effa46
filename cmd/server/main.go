package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/sanpdy/pulse/internal/config"
	"github.com/sanpdy/pulse/internal/serverapp"
)

func main() {
	configPath := flag.String("config", "pulse.yml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	srv, err := serverapp.New(serverapp.Options{
		Config: cfg,
		Logger: log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}
	defer srv.Close()

	srv.StartDayTicker(time.Minute)

	log.Printf("pulse listening on http://localhost%s", cfg.Listen)
	log.Fatal(http.ListenAndServe(cfg.Listen, srv.Handler()))
}
