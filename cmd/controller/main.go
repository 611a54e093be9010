package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homelink/internal/api"
	"homelink/internal/composition"
	"homelink/internal/config"
	"homelink/internal/device"
	"homelink/internal/discovery"
	"homelink/internal/realtime"
	"homelink/internal/refresh"
	"homelink/internal/rules"
	"homelink/internal/web"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	base := cfg.HubBaseURL
	if base == "" {
		if cfg.HubMDNSName == "" {
			log.Fatal("Neither HUB_BASE_URL nor HUB_MDNS_NAME configured")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		addr, err := discovery.ResolveHub(ctx, cfg.HubMDNSName)
		cancel()
		if err != nil {
			log.Fatalf("Failed to discover hub: %v", err)
		}
		base = fmt.Sprintf("http://%s:5069/api", addr)
	}

	hub := api.NewClient(base, cfg.RequestTimeout())
	if cfg.HubUsername != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
		err := hub.Login(ctx, cfg.HubUsername, cfg.HubPassword)
		cancel()
		if err != nil {
			log.Fatalf("Failed to log in to hub: %v", err)
		}
	}

	var transport realtime.Transport
	switch cfg.SyncTransport {
	case "websocket":
		transport = realtime.NewWSTransport(cfg.SyncWSURL, 2*time.Second)
	default:
		transport = realtime.NewMQTTTransport(cfg.MQTTBroker, cfg.MQTTClientID)
	}

	channel := realtime.NewChannel(transport)
	if err := channel.Start(); err != nil {
		log.Fatalf("Failed to connect sync channel: %v", err)
	}

	var cache *device.Cache
	if cfg.RedisAddr != "" {
		cache = device.NewCache(cfg.RedisAddr)
	}

	manager := device.NewManager(hub, channel, cache)
	assembler := rules.NewAssembler(hub, composition.NewSession())

	refresher := refresh.NewRefresher(manager)
	if err := refresher.Start(cfg.RefreshSpec); err != nil {
		log.Fatalf("Failed to start refresher: %v", err)
	}

	webServer := web.NewWebServer(manager, assembler, hub, cfg.WebToken)
	go webServer.Start(cfg.WebAddr)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	refresher.Stop()
	manager.CloseAll()
	channel.Close()
	if cache != nil {
		cache.Close()
	}
	log.Println("Shutdown complete")
}
