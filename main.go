package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pxk/bitable"
	"pxk/config"
	"pxk/database"
	"pxk/metrics"
	"pxk/printslip"
	"pxk/render"
	"pxk/resolver"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("WARN: Failed to load config: %v. Using defaults.", err)
		cfg = config.Defaults()
	}
	if missing := cfg.Missing(); len(missing) > 0 {
		log.Printf("WARN: missing configuration: %s. Print requests will fail until it is set.", strings.Join(missing, ", "))
	}

	client := bitable.NewClient(bitable.Options{
		BaseURL:   cfg.LarkBaseURL,
		AppID:     cfg.LarkAppID,
		AppSecret: cfg.LarkAppSecret,
		AppToken:  cfg.LarkBaseToken,
		Timeout:   time.Duration(cfg.RemoteTimeoutSec) * time.Second,
	})
	masters := client.Table(cfg.LarkTableMasterID)
	details := resolver.NewDefault(client.Table(cfg.LarkTableDetailID))

	rasterizer := render.NewRasterizer(render.PDFOptions{
		Bin:       cfg.BrowserBin,
		NoSandbox: cfg.NoSandbox,
		Timeout:   time.Duration(cfg.RenderTimeoutSec) * time.Second,
	})
	defer rasterizer.Close()
	templates := render.NewTemplateRenderer(cfg.TemplateDir)
	if err := templates.Check(); err != nil {
		log.Printf("WARN: %v. Print requests will fail until it is in place.", err)
	}
	renderer := render.NewSlipRenderer(templates, rasterizer)

	reg := metrics.NewRegistry()
	handler := printslip.NewHandler(masters, details, renderer, printslip.Options{
		APIKey:             cfg.PrintAPIKey,
		StrictTicketNumber: cfg.StrictTicketNumber,
	}).WithMetrics(reg)

	deps := routeDeps{print: handler, metrics: reg, apiKey: cfg.PrintAPIKey}
	if cfg.PrintLogDB != "" {
		db, err := database.OpenPrintLog(cfg.PrintLogDB)
		if err != nil {
			log.Printf("WARN: print log disabled: %v", err)
		} else {
			defer db.Close()
			journal := database.NewPrintLog(db)
			handler.WithJournal(journal)
			deps.journal = journal
			log.Printf("Print log: %s", cfg.PrintLogDB)
		}
	}

	mux := http.NewServeMux()
	SetupRoutes(mux, deps)

	srv := &http.Server{Addr: cfg.Addr(), Handler: mux}
	go func() {
		log.Printf("Starting server on http://localhost%s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server start error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("WARN: shutdown: %v", err)
	}
}
