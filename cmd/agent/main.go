package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"trip-agent/internal/app"
	"trip-agent/internal/cache"
	"trip-agent/internal/config"
	"trip-agent/internal/llm"
	"trip-agent/internal/server"
	"trip-agent/internal/storage"
	"trip-agent/internal/stream"
	"trip-agent/internal/thread"
	"trip-agent/internal/tool"
)

func main() {
	var (
		configPath string
		threadID   string
		task       string
		httpMode   bool
		httpAddr   string
	)
	flag.StringVar(&configPath, "config", "config.yaml", "yaml config path")
	flag.StringVar(&threadID, "thread", "", "existing thread id")
	flag.StringVar(&task, "task", "", "one-shot request")
	flag.BoolVar(&httpMode, "http", false, "run HTTP server mode")
	flag.StringVar(&httpAddr, "http-addr", "", "http listen address")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if strings.TrimSpace(httpAddr) != "" {
		cfg.HTTPAddr = strings.TrimSpace(httpAddr)
	}
	if httpMode {
		cfg.EnableHTTP = true
	}

	store, err := storage.NewBoltStore(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	results, err := cache.Open(cfg.CachePath, cfg.CacheTTL)
	if err != nil {
		log.Fatal(err)
	}
	defer results.Close()

	registry := tool.NewRegistry()
	err = tool.RegisterBuiltins(registry, tool.Options{
		SerpAPIKey:     cfg.SerpAPIKey,
		SerpBaseURL:    cfg.SerpBaseURL,
		OpenWeatherKey: cfg.OpenWeatherKey,
		WeatherBaseURL: cfg.WeatherBaseURL,
		Cache:          results,
	})
	if err != nil {
		log.Fatal(err)
	}

	provider := llm.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.Model, cfg.RequestTimeout)
	application := app.New(cfg, thread.NewManager(store), registry, provider)

	if cfg.EnableHTTP {
		srv := server.New(application)
		httpSrv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		log.Printf("trip-agent HTTP server listening on %s", cfg.HTTPAddr)
		log.Fatal(httpSrv.ListenAndServe())
		return
	}

	if strings.TrimSpace(task) != "" {
		runOneShot(application, cfg, threadID, task)
		return
	}
	runREPL(application, cfg, threadID)
}

func runOneShot(a *app.App, cfg config.Config, threadID, task string) {
	ctx, cancel := withOptionalTimeout(context.Background(), cfg.TurnTimeout)
	defer cancel()
	resp, err := runStreamingTurn(ctx, a, threadID, task)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("\n(thread %s, %d tool rounds)\n", resp.ThreadID, resp.ToolRounds)
}

func runREPL(a *app.App, cfg config.Config, initThreadID string) {
	fmt.Println("trip-agent CLI")
	fmt.Println("Commands: /help  /exit  /new  /threads  /use <threadId>")

	currentThread := strings.TrimSpace(initThreadID)
	if currentThread == "" {
		currentThread = thread.NewThreadID()
	}
	fmt.Printf("Current thread: %s\n", currentThread)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	for {
		fmt.Printf("\n[%s] > ", currentThread)
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			args := strings.Fields(line)
			switch strings.ToLower(args[0]) {
			case "/help":
				printHelp()
			case "/exit", "/quit":
				return
			case "/new":
				currentThread = thread.NewThreadID()
				fmt.Printf("new thread: %s\n", currentThread)
			case "/threads":
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				ids, err := a.ListThreadIDs(ctx)
				cancel()
				if err != nil {
					fmt.Printf("error: %v\n", err)
					continue
				}
				for _, id := range ids {
					fmt.Println("-", id)
				}
			case "/use", "/load":
				if len(args) < 2 {
					fmt.Println("usage: /use <threadId>")
					continue
				}
				currentThread = strings.TrimSpace(args[1])
				printHistory(a, currentThread)
			default:
				fmt.Println("unknown command, run /help")
			}
			continue
		}

		ctx, cancel := withOptionalTimeout(context.Background(), cfg.TurnTimeout)
		start := time.Now()
		resp, err := runStreamingTurn(ctx, a, currentThread, line)
		cancel()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		currentThread = resp.ThreadID
		fmt.Printf("(done in %s)\n", time.Since(start).Round(time.Millisecond))
	}
}

// runStreamingTurn prints tokens as they arrive and tool activity on its own
// lines, then returns the final result.
func runStreamingTurn(ctx context.Context, a *app.App, threadID, input string) (app.TurnResponse, error) {
	turn := stream.StartTurn(ctx, a, threadID, input)
	tokens := turn.Tokens()
	toolLog := turn.ToolLog()
	for tokens != nil || toolLog != nil {
		select {
		case tok, open := <-tokens:
			if !open {
				tokens = nil
				continue
			}
			fmt.Print(tok)
		case line, open := <-toolLog:
			if !open {
				toolLog = nil
				continue
			}
			fmt.Printf("\n  %s\n", line)
		}
	}
	fmt.Println()
	return turn.Wait()
}

func printHistory(a *app.App, threadID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	msgs, err := a.LoadThread(ctx, threadID)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	for _, m := range msgs {
		fmt.Printf("[%s] %s\n", m.Role, m.Content)
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /help                 Show help")
	fmt.Println("  /exit                 Exit CLI")
	fmt.Println("  /new                  Switch to a fresh thread")
	fmt.Println("  /threads              List stored threads")
	fmt.Println("  /use <threadId>       Switch thread and print its history")
}

func withOptionalTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}
