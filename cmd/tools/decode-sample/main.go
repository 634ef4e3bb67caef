package main

import (
	"fmt"
	"log"
	"time"

	"fieldtrack/internal/filter"
	"fieldtrack/internal/protocol"
)

// Feeds a sample transmission through the parser and the smoothing chain
// and prints each stage's output. Handy when bringing up a new device
// firmware revision.
func main() {
	payload := "*TK310,123456789012345,240101083000,3453.0000,N,05117.0000,E,0,0,1,1210.5,001#\n" +
		"*TK310,123456789012345,240101083100,3453.0450,N,05117.0010,E,9.5,45,1,1210.5,002#\n" +
		"*TK310,123456789012345,240101083200,3453.9000,N,05117.0020,E,10.2,45,1,1210.5,003#\n" +
		"*TK310,123456789012345,240101083300,3453.1350,N,05117.0030,E,10.0,45,1,1210.5,004#\n" +
		"*TK310,123456789012345,bad-record#\n" +
		"*TK310,123456789012345,240101083400,3453.1800,N,05117.0040,E,9.8,45,1,1210.5,005#"

	parser := protocol.NewParser(time.UTC)
	points, invalid, err := parser.Parse([]byte(payload))
	if err != nil {
		log.Fatalf("Parse failed: %v", err)
	}

	fmt.Printf("Decoded %d points, rejected %d records\n\n", len(points), len(invalid))
	for _, rec := range invalid {
		fmt.Printf("rejected: %s (%s)\n", rec.Raw, rec.Reason)
	}

	fmt.Println("\nRaw coordinates:")
	for _, p := range points {
		fmt.Printf("  %s  %.6f,%.6f  %.1f km/h\n",
			p.Timestamp.Format("15:04:05"), p.Latitude, p.Longitude, p.Speed)
	}

	chain := filter.NewChain(
		filter.NewMedianStage(filter.DefaultMedianWindow),
		filter.NewKalmanStage(filter.DefaultProcessNoise),
	)
	smoothed := chain.Run(points)

	fmt.Println("\nAfter median + Kalman:")
	for _, p := range smoothed {
		fmt.Printf("  %s  %.6f,%.6f  %.1f km/h\n",
			p.Timestamp.Format("15:04:05"), p.Latitude, p.Longitude, p.Speed)
	}
}
