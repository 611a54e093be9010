package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"homelink/auth"
	"homelink/internal/config"
	"homelink/internal/db"
	"homelink/internal/discovery"
	"homelink/internal/mqtt"
	"homelink/internal/simulator"
)

// The simulator is a development hub: it serves the REST API the controller
// talks to, pushes property deltas and heartbeats on the sync channel, and
// applies queued device commands against a Postgres-backed device table.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DBURL == "" {
		log.Fatal("DB_URL is required for the simulator")
	}
	database, err := db.NewDB(cfg.DBURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	wsHub := simulator.NewWSHub()

	var targets []simulator.Broadcaster
	targets = append(targets, wsHub)
	if cfg.MQTTBroker != "" {
		mqttClient, err := mqtt.NewClient(cfg.MQTTBroker, "homelink-simulator")
		if err != nil {
			log.Fatalf("Failed to connect to MQTT: %v", err)
		}
		publisher := mqtt.NewPublisher(mqttClient)
		defer publisher.Close()
		targets = append(targets, publisher)
	}
	broadcast := simulator.NewMultiBroadcaster(targets...)

	if cfg.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is required for the simulator task queue")
	}
	queue := simulator.NewQueue(cfg.RedisAddr)
	defer queue.Close()

	worker := simulator.NewWorker(cfg.RedisAddr, database, broadcast)
	worker.Start()

	heartbeat := simulator.NewHeartbeat(database, broadcast)
	if err := heartbeat.Start(cfg.HeartbeatSpec); err != nil {
		log.Fatalf("Failed to start heartbeat publisher: %v", err)
	}

	var authModule *auth.AuthModule
	if cfg.JWTSecret != "" {
		authModule = auth.NewAuthModule(database.Pool(), cfg.JWTSecret)
	} else {
		log.Println("JWT_SECRET not set, authentication disabled")
	}

	if cfg.HubMDNSName != "" {
		conn, err := discovery.Advertise(cfg.HubMDNSName)
		if err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			defer conn.Close()
			log.Printf("Advertising as %s via mDNS", cfg.HubMDNSName)
		}
	}

	server := simulator.NewServer(database, authModule, queue, wsHub, broadcast)
	go server.Start(cfg.SimAddr)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	heartbeat.Stop()
	worker.Stop()
	log.Println("Shutdown complete")
}
