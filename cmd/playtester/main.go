// Package main - playtester
// Load generator: N websocket bots that ready up, build toys from the
// spawned pieces and ask to play again after every game over.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/autoplay"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/network"
)

// Config for the playtester
type Config struct {
	ServerURL    string
	NumClients   int
	MissRate     float64
	TestDuration time.Duration
	Seed         int64
	OutputPath   string
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Rejected         int64
	Errors           int64
	ToysBuilt        int64
	GamesOver        int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

func main() {
	var config Config
	cmd := &cobra.Command{
		Use:   "playtester",
		Short: "Stress the toy server with websocket bots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(config)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&config.ServerURL, "url", "ws://localhost:8080/ws", "WebSocket server URL")
	cmd.Flags().IntVar(&config.NumClients, "clients", 10, "Number of concurrent bots")
	cmd.Flags().Float64Var(&config.MissRate, "miss-rate", 0.05, "Chance a bot leaves an anchor empty")
	cmd.Flags().DurationVar(&config.TestDuration, "duration", 60*time.Second, "Test duration")
	cmd.Flags().Int64Var(&config.Seed, "seed", time.Now().UnixNano(), "Random seed")
	cmd.Flags().StringVar(&config.OutputPath, "out", "playtest_results.json", "Where to write the JSON results")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(config Config) error {
	fmt.Println("=========================================")
	fmt.Println("TOY WORKSHOP PLAYTESTER")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Clients:  %d\n", config.NumClients)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runPlaytest(ctx, config)
	return printResults(stats, config)
}

func runPlaytest(ctx context.Context, config Config) *Stats {
	stats := &Stats{Latencies: make([]time.Duration, 0, 10000)}
	var wg sync.WaitGroup

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(botID int) {
			defer wg.Done()
			runBot(ctx, botID, config, stats)
		}(i)

		// Stagger bot starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Printf("All %d bots started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("Progress: Sent=%d Recv=%d Rejected=%d Toys=%d GameOvers=%d\n",
					atomic.LoadInt64(&stats.MessagesSent),
					atomic.LoadInt64(&stats.MessagesReceived),
					atomic.LoadInt64(&stats.Rejected),
					atomic.LoadInt64(&stats.ToysBuilt),
					atomic.LoadInt64(&stats.GamesOver))
			}
		}
	}()

	wg.Wait()
	return stats
}

func runBot(ctx context.Context, botID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		fmt.Printf("Bot %d: connection failed: %v\n", botID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	send := func(a network.PlayerAction) bool {
		start := time.Now()
		if err := conn.WriteJSON(a); err != nil {
			if ctx.Err() == nil {
				atomic.AddInt64(&stats.Errors, 1)
			}
			return false
		}
		atomic.AddInt64(&stats.MessagesSent, 1)
		stats.mu.Lock()
		stats.Latencies = append(stats.Latencies, time.Since(start))
		stats.mu.Unlock()
		return true
	}

	player := autoplay.NewPlayer(config.MissRate, rand.New(rand.NewSource(config.Seed+int64(botID))))
	if !send(network.PlayerAction{Type: network.MessageReady}) {
		return
	}

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		atomic.AddInt64(&stats.MessagesReceived, 1)

		e, ok, err := autoplay.DecodeFrame(frame)
		if err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			continue
		}
		if !ok {
			atomic.AddInt64(&stats.Rejected, 1)
			continue
		}
		player.Observe(e)

		var action *network.PlayerAction
		switch e.Type {
		case events.EventTypeBuildStarted:
			for _, d := range player.NextDrops() {
				if !send(network.PlayerAction{Type: network.MessageDrop, PieceID: d.PieceID, Anchor: d.Anchor}) {
					return
				}
			}
		case events.EventTypeCleaningFinished, events.EventTypeSessionReset:
			action = &network.PlayerAction{Type: network.MessageReady}
		case events.EventTypeBuildSuccess:
			if botID == 0 {
				atomic.AddInt64(&stats.ToysBuilt, 1)
			}
		case events.EventTypeGameOver:
			if botID == 0 {
				atomic.AddInt64(&stats.GamesOver, 1)
			}
			action = &network.PlayerAction{Type: network.MessagePlayAgain}
		}
		if action != nil && !send(*action) {
			return
		}
	}
}

func printResults(stats *Stats, config Config) error {
	fmt.Println("\n=========================================")
	fmt.Println("PLAYTEST RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	rejected := atomic.LoadInt64(&stats.Rejected)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Messages Sent:     %d\n", sent)
	fmt.Printf("Messages Received: %d\n", recv)
	fmt.Printf("Rejected Actions:  %d\n", rejected)
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Toys Built:        %d\n", atomic.LoadInt64(&stats.ToysBuilt))
	fmt.Printf("Game Overs:        %d\n", atomic.LoadInt64(&stats.GamesOver))

	throughput := float64(recv) / config.TestDuration.Seconds()
	fmt.Printf("Broadcast rate:    %.2f msg/sec\n", throughput)

	stats.mu.Lock()
	latencies := stats.Latencies
	stats.mu.Unlock()
	if len(latencies) > 0 {
		var total time.Duration
		min, max := latencies[0], latencies[0]
		for _, l := range latencies {
			total += l
			if l < min {
				min = l
			}
			if l > max {
				max = l
			}
		}
		fmt.Printf("\nWrite latency:\n")
		fmt.Printf("  Min: %v\n", min)
		fmt.Printf("  Avg: %v\n", total/time.Duration(len(latencies)))
		fmt.Printf("  Max: %v\n", max)
	}

	fmt.Println("\n-----------------------------------------")
	switch {
	case errs == 0:
		fmt.Println("PASSED: no transport errors")
	case float64(errs)/float64(sent+1) < 0.05:
		fmt.Println("WARNING: some errors detected")
	default:
		fmt.Println("FAILED: high error rate")
	}

	results := map[string]interface{}{
		"messages_sent":     sent,
		"messages_received": recv,
		"rejected":          rejected,
		"errors":            errs,
		"toys_built":        atomic.LoadInt64(&stats.ToysBuilt),
		"game_overs":        atomic.LoadInt64(&stats.GamesOver),
		"broadcast_per_sec": throughput,
		"config": map[string]interface{}{
			"clients":   config.NumClients,
			"miss_rate": config.MissRate,
			"duration":  config.TestDuration.String(),
		},
	}
	jsonData, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(config.OutputPath, jsonData, 0644); err != nil {
		return err
	}
	fmt.Println("Results saved to " + config.OutputPath)
	return nil
}
