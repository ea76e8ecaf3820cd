// replay reads a JSON-lines feed of historical order events, encodes
// each as a binary frame, and publishes it to the engine's orders topic.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"exchange/infra/kafka"
	"exchange/internal/wire"
)

type feedRow struct {
	Timestamp uint64 `json:"timestamp"`
	Type      uint8  `json:"type"`
	OrderID   string `json:"order_id"`
	Ticker    string `json:"ticker"`
	Price     uint32 `json:"price"`
	Qty       uint32 `json:"qty"`
	Side      string `json:"side"`
}

func main() {
	path := flag.String("file", "", "JSON-lines feed file")
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka brokers")
	topic := flag.String("topic", "orders", "orders topic")
	flag.Parse()

	if *path == "" {
		log.Fatal("replay: -file is required")
	}
	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("replay: %v", err)
	}
	defer f.Close()

	producer := kafka.NewProducer(strings.Split(*brokers, ","), *topic)
	defer producer.Close()

	ctx := context.Background()
	sent, skipped := 0, 0

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var row feedRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			skipped++
			continue
		}

		var id [16]byte
		copy(id[:], row.OrderID)
		var ticker [4]byte
		copy(ticker[:], row.Ticker)
		side := byte('B')
		if row.Side == "S" {
			side = 'S'
		}

		frame := wire.EncodeFrame(row.Timestamp, wire.MsgType(row.Type),
			id, ticker, row.Price, row.Qty, side)
		if err := producer.Send(ctx, ticker[:], frame); err != nil {
			log.Fatalf("replay: publish failed: %v", err)
		}
		sent++
	}
	if err := sc.Err(); err != nil {
		log.Fatalf("replay: %v", err)
	}
	log.Printf("replay: sent %d frames, skipped %d bad lines", sent, skipped)
}
