package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// stateCmd and snapshotCmd talk to the server's loopback-only admin
// endpoints; they need a running server, unlike the file-based
// subcommands.

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	adminRequest(http.MethodGet, *baseURL, "/admin/v1/state", 5*time.Second)
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	// The server waits for the service loop to accept the export, so
	// give this one a little longer than a plain read.
	adminRequest(http.MethodPost, *baseURL, "/admin/v1/snapshot", 10*time.Second)
}

// adminRequest performs one call and prints the JSON body, exiting
// nonzero on transport or HTTP failure.
func adminRequest(method, baseURL, endpoint string, timeout time.Duration) {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + endpoint
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	cl := &http.Client{Timeout: timeout}
	resp, err := cl.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var parsed any
	if json.Unmarshal(body, &parsed) == nil {
		printJSON(parsed)
	} else {
		fmt.Println(strings.TrimSpace(string(body)))
	}
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}
