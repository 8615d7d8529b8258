// Command royale-agitator is a load generator for the standalone
// server: it floods one session with concurrent websocket watchers that
// fire random spend commands, and reports connect/frame/error counts.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

type config struct {
	ServerURL     string
	APIURL        string
	SessionID     string
	Variant       string
	NumClients    int
	SpendInterval time.Duration
	SpendMax      int
	TestDuration  time.Duration
}

type stats struct {
	Connected        int64
	MessagesSent     int64
	MessagesReceived int64
	Errors           int64
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "websocket relay URL")
	apiURL := flag.String("api", "http://localhost:8080", "REST base URL, used to create a session")
	sessionID := flag.String("session", "", "existing session ID; empty creates a fresh one")
	variant := flag.String("variant", "standard", "variant for a freshly created session")
	numClients := flag.Int("clients", 20, "number of concurrent watchers")
	interval := flag.Duration("interval", 500*time.Millisecond, "spend attempt interval per watcher")
	spendMax := flag.Int("spend-max", 4, "largest random spend amount")
	duration := flag.Duration("duration", 60*time.Second, "test duration")
	flag.Parse()

	cfg := config{
		ServerURL:     *serverURL,
		APIURL:        *apiURL,
		SessionID:     *sessionID,
		Variant:       *variant,
		NumClients:    *numClients,
		SpendInterval: *interval,
		SpendMax:      *spendMax,
		TestDuration:  *duration,
	}

	if cfg.SessionID == "" {
		id, err := createSession(cfg)
		if err != nil {
			log.Fatalf("create session: %v", err)
		}
		cfg.SessionID = id
		fmt.Printf("created session %s (%s)\n", id, cfg.Variant)
	}

	fmt.Printf("agitating session %s: %d watchers, spend every %v, for %v\n",
		cfg.SessionID, cfg.NumClients, cfg.SpendInterval, cfg.TestDuration)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("interrupt received, stopping")
		cancel()
	}()

	st := runClients(ctx, cfg)
	printResults(st, cfg)
}

// createSession asks the REST API for a fresh session of the configured
// variant.
func createSession(cfg config) (string, error) {
	payload, _ := json.Marshal(map[string]string{"variant": cfg.Variant})
	resp, err := http.Post(cfg.APIURL+"/sessions", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func runClients(ctx context.Context, cfg config) *stats {
	st := &stats{}
	var wg sync.WaitGroup

	for i := 0; i < cfg.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, cfg, st)
		}(i)

		// stagger starts so the first watcher reliably becomes owner
		time.Sleep(10 * time.Millisecond)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("progress: sent=%d recv=%d errors=%d\n",
					atomic.LoadInt64(&st.MessagesSent),
					atomic.LoadInt64(&st.MessagesReceived),
					atomic.LoadInt64(&st.Errors))
			}
		}
	}()

	wg.Wait()
	return st
}

func runClient(ctx context.Context, clientID int, cfg config, st *stats) {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		log.Printf("client %d: url parse: %v", clientID, err)
		atomic.AddInt64(&st.Errors, 1)
		return
	}
	q := u.Query()
	q.Set("session", cfg.SessionID)
	q.Set("name", fmt.Sprintf("agitator-%03d", clientID))
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		log.Printf("client %d: connect: %v", clientID, err)
		atomic.AddInt64(&st.Errors, 1)
		return
	}
	defer conn.Close()
	atomic.AddInt64(&st.Connected, 1)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			atomic.AddInt64(&st.MessagesReceived, 1)
		}
	}()

	// the first watcher is the session owner; it starts the countdown
	// so everyone has elixir to burn
	if clientID == 0 {
		if err := conn.WriteJSON(map[string]interface{}{"cmd": "start"}); err != nil {
			atomic.AddInt64(&st.Errors, 1)
			return
		}
		atomic.AddInt64(&st.MessagesSent, 1)
	}

	rng := rand.New(rand.NewSource(int64(clientID) + time.Now().UnixNano()))
	ticker := time.NewTicker(cfg.SpendInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			amount := 1 + rng.Intn(cfg.SpendMax)
			cmd := map[string]interface{}{"cmd": "spend", "amount": amount}
			if err := conn.WriteJSON(cmd); err != nil {
				atomic.AddInt64(&st.Errors, 1)
				return
			}
			atomic.AddInt64(&st.MessagesSent, 1)
		}
	}
}

func printResults(st *stats, cfg config) {
	sent := atomic.LoadInt64(&st.MessagesSent)
	recv := atomic.LoadInt64(&st.MessagesReceived)
	errs := atomic.LoadInt64(&st.Errors)
	connected := atomic.LoadInt64(&st.Connected)

	fmt.Println("results:")
	fmt.Printf("  watchers connected: %d/%d\n", connected, cfg.NumClients)
	fmt.Printf("  commands sent:      %d\n", sent)
	fmt.Printf("  frames received:    %d\n", recv)
	fmt.Printf("  errors:             %d\n", errs)
	fmt.Printf("  send throughput:    %.1f msg/sec\n", float64(sent)/cfg.TestDuration.Seconds())
}
