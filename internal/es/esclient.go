package es

import (
	"io"
	"log"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/lawravasco2207/phone-store-sub001/internal/config"
)

func NewClient(cfg *config.Config) (*elasticsearch.Client, error) {
	log.Printf("Connecting to Elasticsearch at: %s", cfg.ES_URL)

	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.ES_URL},
		Username:  cfg.ES_USER,
		Password:  cfg.ES_PASSWORD,
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		log.Printf("Failed to create Elasticsearch client: %v", err)
		return nil, err
	}

	res, err := client.Info()
	if err != nil {
		log.Printf("Failed to get Elasticsearch info: %v", err)
		return nil, err
	}

	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		log.Printf("Elasticsearch error response: %s", body)
		return nil, errResponse(res.Status())
	}

	log.Println("Successfully connected to Elasticsearch")
	return client, nil
}

type esError string

func (e esError) Error() string { return "elasticsearch error: " + string(e) }

func errResponse(status string) error { return esError(status) }
