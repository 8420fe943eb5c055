package round

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
)

// ElasticsearchConfig holds configuration options for the Elasticsearch
// repository.
type ElasticsearchConfig struct {
	URL         string
	Username    string
	Password    string
	IndexPrefix string
}

// DefaultElasticsearchConfig returns a default configuration for
// Elasticsearch.
func DefaultElasticsearchConfig() *ElasticsearchConfig {
	return &ElasticsearchConfig{
		URL:         "http://localhost:9200",
		IndexPrefix: "blackjack",
	}
}

// ElasticsearchRepository mirrors rounds into Elasticsearch for
// analytics while delegating authoritative storage to a base repository.
// Indexing is best-effort: a failed index never fails the save.
type ElasticsearchRepository struct {
	baseRepo Repository
	client   *elasticsearch.Client
	index    string
}

// NewElasticsearchRepository creates an Elasticsearch repository wrapping
// baseRepo.
func NewElasticsearchRepository(baseRepo Repository, config *ElasticsearchConfig) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	if config.IndexPrefix == "" {
		config.IndexPrefix = "blackjack"
	}

	repo := &ElasticsearchRepository{
		baseRepo: baseRepo,
		client:   client,
		index:    config.IndexPrefix + "_rounds",
	}

	if err := repo.initIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("error initializing index: %w", err)
	}
	return repo, nil
}

func (r *ElasticsearchRepository) initIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.index})
	if err != nil {
		return fmt.Errorf("error checking if round index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != 404 {
		return nil
	}

	mapping := `{
		"mappings": {
			"properties": {
				"id": { "type": "keyword" },
				"userId": { "type": "keyword" },
				"usedCredits": { "type": "boolean" },
				"outcome": { "type": "keyword" },
				"totalBet": { "type": "double" },
				"totalPayout": { "type": "double" },
				"newBalance": { "type": "double" },
				"completedAt": { "type": "date" },
				"hands": {
					"type": "nested",
					"properties": {
						"bet": { "type": "double" },
						"insurance": { "type": "double" },
						"result": { "type": "keyword" },
						"payout": { "type": "double" }
					}
				},
				"actions": {
					"type": "nested",
					"properties": {
						"action": { "type": "keyword" },
						"handValue": { "type": "integer" }
					}
				}
			}
		}
	}`

	req := esapi.IndicesCreateRequest{
		Index: r.index,
		Body:  bytes.NewReader([]byte(mapping)),
	}

	createRes, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error creating round index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("error creating round index: %s", createRes.String())
	}
	return nil
}

// SaveRound saves the round to the base repository and indexes it in
// Elasticsearch.
func (r *ElasticsearchRepository) SaveRound(record *entities.RoundRecord) error {
	if err := r.baseRepo.SaveRound(record); err != nil {
		return fmt.Errorf("error saving round to base repository: %w", err)
	}
	return r.indexRound(context.Background(), record)
}

func (r *ElasticsearchRepository) indexRound(ctx context.Context, record *entities.RoundRecord) error {
	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error marshaling round: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(jsonData),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(record.ID),
	)
	if err != nil {
		return fmt.Errorf("error indexing round: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing round: %s", res.String())
	}
	return nil
}

// GetPlayerRounds reads the player's rounds from Elasticsearch, falling
// back to the base repository on error.
func (r *ElasticsearchRepository) GetPlayerRounds(userID string, limit int) ([]*entities.RoundRecord, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	size := limit
	if size <= 0 {
		size = 100
	}

	query := fmt.Sprintf(`{
		"query": {
			"term": { "userId": "%s" }
		},
		"sort": [
			{ "completedAt": { "order": "desc" } }
		]
	}`, userID)

	ctx := context.Background()
	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader([]byte(query))),
		r.client.Search.WithSize(size),
	)
	if err != nil {
		return r.baseRepo.GetPlayerRounds(userID, limit)
	}
	defer res.Body.Close()

	if res.IsError() {
		return r.baseRepo.GetPlayerRounds(userID, limit)
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source entities.RoundRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error parsing round results: %w", err)
	}

	records := make([]*entities.RoundRecord, 0, len(result.Hits.Hits))
	for i := range result.Hits.Hits {
		records = append(records, &result.Hits.Hits[i].Source)
	}
	return records, nil
}

// Close closes the base repository.
func (r *ElasticsearchRepository) Close() error {
	return r.baseRepo.Close()
}
