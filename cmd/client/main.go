package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/omochice/spectrangle-net/internal/client"
)

func main() {
	serverAddr := flag.String("server", "localhost:4000", "Server address (e.g., localhost:4000)")
	network := flag.String("network", client.NetworkTCP, "Transport to use: tcp or ws")
	name := flag.String("name", "", "Player name")
	flag.Parse()

	if *name == "" {
		log.Fatal("Name is required. Use -name flag")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := client.Dial(ctx, *network, *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server: %v", err)
	}
	defer c.Close()

	if err := c.Handshake(ctx, *name, flag.Args()...); err != nil {
		log.Fatalf("Handshake failed: %v", err)
	}
	log.Printf("Connected to %s as %s", *serverAddr, *name)

	go func() {
		for line := range c.Lines() {
			fmt.Println(line)
		}
		log.Println("Server closed the connection")
		os.Exit(0)
	}()

	fmt.Println("Type commands (or 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}
		if err := c.Send(text); err != nil {
			log.Printf("Failed to send: %v", err)
			break
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Error reading input: %v", err)
	}
}
