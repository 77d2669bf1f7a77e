// Command consensus-node runs one replica's live network endpoint and
// HTTP control surface, signal handling adapted from
// cmd/arrow-server/main.go.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Onyekachukwu-Nweke/consensus-systems/api"
	"github.com/Onyekachukwu-Nweke/consensus-systems/consensus"
	"github.com/Onyekachukwu-Nweke/consensus-systems/transport"
)

func main() {
	var (
		id         = flag.Int("id", 0, "this replica's node id")
		host       = flag.String("host", "127.0.0.1", "host to bind the ZeroMQ router to")
		port       = flag.Int("port", 5555, "port to bind the ZeroMQ router to")
		peersFile  = flag.String("peers", "", "path to a JSON file mapping node id to tcp:// address")
		apiAddress = flag.String("api", ":8080", "address for the HTTP control server")
	)
	flag.Parse()

	addresses, err := loadPeerAddresses(*peersFile)
	if err != nil {
		log.Fatalf("consensus-node: failed to load peers: %v", err)
	}

	svc := transport.NewService(transport.ServiceConfig{
		NodeID:    consensus.NodeID(*id),
		Host:      *host,
		Port:      *port,
		Addresses: addresses,
	})
	if err := svc.Start(); err != nil {
		log.Fatalf("consensus-node: failed to start transport service: %v", err)
	}
	log.Printf("consensus-node: replica %d listening at %s:%d with %d known peers", *id, *host, *port, len(addresses))

	srv, err := api.NewServer(nil)
	if err != nil {
		log.Fatalf("consensus-node: failed to start control server: %v", err)
	}
	if err := srv.StartAsync(*apiAddress); err != nil {
		log.Fatalf("consensus-node: failed to start HTTP control server: %v", err)
	}
	log.Printf("consensus-node: control server listening at %s", *apiAddress)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("consensus-node: shutting down...")
	srv.Stop()
	svc.Stop()
	log.Println("consensus-node: stopped.")
}

// loadPeerAddresses reads a JSON object of {"<node id>": "tcp://host:port"}
// from path, or returns an empty table if path is unset.
func loadPeerAddresses(path string) (map[consensus.NodeID]string, error) {
	out := make(map[consensus.NodeID]string)
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for k, v := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, err
		}
		out[consensus.NodeID(id)] = v
	}
	return out, nil
}
