// cmd/syncdogctl/main.go
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "start":
		err = cmdStart(args)
	case "stop":
		err = cmdStop(args)
	case "status":
		err = cmdStatus(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`syncdogctl - control a running syncdogd

Usage: syncdogctl <command> [options]

Commands:
  start [-addr host:port]    Start the engine a running syncdogd was configured with
  stop [-addr host:port]     Stop the engine, leaving syncdogd itself running
  status [-addr host:port]   Show the engine's running state and last error
  help                       Show this message

syncdogctl does not launch or kill the syncdogd process itself; every
subcommand here is a flag-parsed HTTP call against an instance that is
already up.`)
}

func cmdStart(args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:8787", "host:port of the syncdogd control endpoint")
	fs.Parse(args)

	return postControl(*addr, "start")
}

func cmdStop(args []string) error {
	fs := flag.NewFlagSet("stop", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:8787", "host:port of the syncdogd control endpoint")
	fs.Parse(args)

	return postControl(*addr, "stop")
}

func postControl(addr, action string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(fmt.Sprintf("http://%s/%s", addr, action), "", nil)
	if err != nil {
		return fmt.Errorf("calling %s on %s: %w", action, addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s: %s", action, resp.Status, bytes.TrimSpace(body))
	}

	fmt.Printf("%s: ok\n", action)
	return nil
}

func cmdStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:8787", "host:port of the syncdogd status endpoint")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/status", *addr))
	if err != nil {
		return fmt.Errorf("querying %s: %w", *addr, err)
	}
	defer resp.Body.Close()

	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decoding status response: %w", err)
	}

	fmt.Printf("running:    %v\n", status["running"])
	fmt.Printf("started_at: %v\n", status["started_at"])
	if lastErr, ok := status["last_error"]; ok {
		fmt.Printf("last_error: %v\n", lastErr)
	}
	return nil
}
