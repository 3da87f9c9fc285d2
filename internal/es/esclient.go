package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Joris1Jansen/BulkyBook/internal/config"
	"github.com/Joris1Jansen/BulkyBook/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
)

const BooksIndex = "books"

func NewClient(cfg *config.Config) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.ES_URL},
		Username:  cfg.ES_USER,
		Password:  cfg.ES_PASSWORD,
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch ping: %s", res.String())
	}

	return client, nil
}

// IndexBook upserts the book document, the document id is the DB id.
func IndexBook(ctx context.Context, client *elasticsearch.Client, book *models.Book) error {
	body, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshal book: %w", err)
	}

	res, err := client.Index(
		BooksIndex,
		bytes.NewReader(body),
		client.Index.WithContext(ctx),
		client.Index.WithDocumentID(strconv.FormatUint(uint64(book.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index book %d: %w", book.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index book %d: %s", book.ID, res.String())
	}
	return nil
}

func DeleteBook(ctx context.Context, client *elasticsearch.Client, id uint) error {
	res, err := client.Delete(
		BooksIndex,
		strconv.FormatUint(uint64(id), 10),
		client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete book %d: %s", id, res.String())
	}
	return nil
}
