package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/lawravasco2207/phone-store-sub001/internal/config"
	"github.com/lawravasco2207/phone-store-sub001/internal/events"
	"github.com/lawravasco2207/phone-store-sub001/internal/logging"
	"github.com/lawravasco2207/phone-store-sub001/internal/service/ingest"
)

// Batch import of product records from a CSV file:
//
//	go run ./cmd/ingest -file products.csv
func main() {
	file := flag.String("file", "", "path to the CSV file to import")
	flag.Parse()

	if *file == "" {
		log.Fatal("usage: ingest -file <products.csv>")
	}

	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	var prod *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod = events.NewProducer([]string{configuration.KAFKA_ADDRESS})
		defer prod.Close()
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("cannot open %s: %v", *file, err)
	}
	defer f.Close()

	svc := &ingest.Service{DB: db, Producer: prod}
	res, err := svc.ImportCSV(logging.IntoContext(context.Background(), logger), f)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	logger.Info("import finished",
		slog.String("job_id", res.JobID),
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
		slog.Int("skipped", res.Skipped),
	)
}
