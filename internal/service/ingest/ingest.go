package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/events"
	"github.com/lawravasco2207/phone-store-sub001/internal/logging"
	"github.com/lawravasco2207/phone-store-sub001/internal/models"
)

// Columns: sku,name,description,price,stock,category
// A header row is detected and skipped. Rows with a known SKU update the
// product, unknown SKUs create one. Bad rows are counted, not fatal.

type Result struct {
	JobID   string `json:"job_id"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
}

type Service struct {
	DB       *gorm.DB
	Producer *events.Producer
}

func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (Result, error) {
	res := Result{JobID: uuid.NewString()}
	log := logging.FromContext(ctx)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			res.Skipped++
			continue
		}

		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}

		row, err := parseRow(record)
		if err != nil {
			log.Warn("skipping csv row", slog.Any("error", err))
			res.Skipped++
			continue
		}

		created, err := s.upsert(ctx, row)
		if err != nil {
			log.Warn("csv upsert failed", slog.String("sku", row.SKU), slog.Any("error", err))
			res.Skipped++
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	event := map[string]any{
		"type":    "product_import_finished",
		"job_id":  res.JobID,
		"created": res.Created,
		"updated": res.Updated,
		"skipped": res.Skipped,
	}
	if err := s.Producer.PublishEvent(ctx, events.TopicProductEvents, res.JobID, event); err != nil {
		log.Error("kafka publish error", slog.Any("error", err))
	}

	return res, nil
}

type row struct {
	SKU         string
	Name        string
	Description string
	Price       float64
	Stock       int
	Category    string
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "sku")
}

func parseRow(record []string) (row, error) {
	if len(record) < 5 {
		return row{}, fmt.Errorf("expected at least 5 columns, got %d", len(record))
	}

	r := row{
		SKU:         strings.TrimSpace(record[0]),
		Name:        strings.TrimSpace(record[1]),
		Description: strings.TrimSpace(record[2]),
	}
	if r.SKU == "" || r.Name == "" {
		return row{}, errors.New("sku and name are required")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil || price < 0 {
		return row{}, fmt.Errorf("invalid price %q", record[3])
	}
	r.Price = price

	stock, err := strconv.Atoi(strings.TrimSpace(record[4]))
	if err != nil || stock < 0 {
		return row{}, fmt.Errorf("invalid stock %q", record[4])
	}
	r.Stock = stock

	if len(record) > 5 {
		r.Category = strings.TrimSpace(record[5])
	}
	return r, nil
}

func (s *Service) upsert(ctx context.Context, r row) (created bool, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prod models.Product
		result := tx.Where("sku = ?", r.SKU).First(&prod)
		switch {
		case result.Error == nil:
			prod.Name = r.Name
			prod.Description = r.Description
			prod.Price = r.Price
			prod.Stock = uint(r.Stock)
			if err := tx.Save(&prod).Error; err != nil {
				return err
			}
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			created = true
			prod = models.Product{
				SKU:         r.SKU,
				Name:        r.Name,
				Description: r.Description,
				Price:       r.Price,
				Stock:       uint(r.Stock),
			}
			if err := tx.Create(&prod).Error; err != nil {
				return err
			}
		default:
			return result.Error
		}

		if r.Category != "" {
			var cat models.Category
			if err := tx.Where(models.Category{Name: r.Category}).FirstOrCreate(&cat).Error; err != nil {
				return err
			}
			if err := tx.Model(&prod).Association("Categories").Append(&cat); err != nil {
				return err
			}
		}

		var inv models.Inventory
		result = tx.Where("sku = ?", r.SKU).First(&inv)
		switch {
		case result.Error == nil:
			inv.Stock = r.Stock
			return tx.Save(&inv).Error
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			inv = models.Inventory{ProductID: prod.ID, SKU: r.SKU, Stock: r.Stock}
			return tx.Create(&inv).Error
		default:
			return result.Error
		}
	})
	if err != nil {
		return false, err
	}
	return created, nil
}
