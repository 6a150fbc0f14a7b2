package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/operator"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/rs/zerolog/log"

	"one-ui-backend/config"
	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/repository"
)

type elasticsearchAuditRepository struct {
	esTypedClient *elasticsearch.TypedClient
	indexPrefix   string
}

func NewElasticsearchAuditRepository(cfg *config.Config) (repository.AuditRepository, error) {
	transport := &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: time.Second * 10,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
	}
	esCfgForTyped := elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Transport: transport,
	}

	typedClient, err := elasticsearch.NewTypedClient(esCfgForTyped)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Typed Elasticsearch Client in Repository")
		return nil, err
	}

	return &elasticsearchAuditRepository{
		esTypedClient: typedClient,
		indexPrefix:   cfg.Elasticsearch.AuditIndex,
	}, nil
}

func (r *elasticsearchAuditRepository) Search(ctx context.Context, req dto.AuditSearchRequest) (*dto.AuditSearchResponse, error) {
	indexPattern := fmt.Sprintf("%s-*", r.indexPrefix)
	queryParts := []types.Query{}

	startTimeStr := req.StartTime.Format(time.RFC3339)
	endTimeStr := req.EndTime.Format(time.RFC3339)

	queryParts = append(queryParts, types.Query{
		Range: map[string]types.RangeQuery{
			"@timestamp": types.DateRangeQuery{
				Gte: &startTimeStr,
				Lte: &endTimeStr,
			},
		},
	})

	if req.Query != "" {
		queryParts = append(queryParts, types.Query{
			QueryString: &types.QueryStringQuery{
				Query:  req.Query,
				Fields: []string{"action", "actor", "target", "detail", "category"},
				DefaultOperator: &operator.Operator{
					Name: "AND",
				},
			},
		})
	}

	if len(req.Categories) > 0 {
		categoryTerms := make([]types.FieldValue, len(req.Categories))
		for i, category := range req.Categories {
			categoryTerms[i] = category
		}
		queryParts = append(queryParts, types.Query{
			Terms: &types.TermsQuery{
				TermsQuery: map[string]types.TermsQueryField{
					"category.keyword": categoryTerms,
				},
			},
		})
	}

	if len(req.Statuses) > 0 {
		statusTerms := make([]types.FieldValue, len(req.Statuses))
		for i, status := range req.Statuses {
			statusTerms[i] = status
		}
		queryParts = append(queryParts, types.Query{
			Terms: &types.TermsQuery{
				TermsQuery: map[string]types.TermsQueryField{
					"status.keyword": statusTerms,
				},
			},
		})
	}

	if req.Actor != "" {
		queryParts = append(queryParts, types.Query{
			Term: map[string]types.TermQuery{
				"actor.keyword": {Value: req.Actor},
			},
		})
	}

	if req.ActorIP != "" {
		queryParts = append(queryParts, types.Query{
			Term: map[string]types.TermQuery{
				"actor_ip.keyword": {Value: req.ActorIP},
			},
		})
	}

	from := (req.Page - 1) * req.Size
	order := sortorder.Desc
	if req.SortOrder == "asc" {
		order = sortorder.Asc
	}
	sortField := req.SortBy
	if sortField != "@timestamp" {
		knownKeywordFields := map[string]bool{
			"category": true,
			"action":   true,
			"actor":    true,
			"status":   true,
			"target":   true,
		}
		if knownKeywordFields[sortField] {
			sortField = fmt.Sprintf("%s.keyword", req.SortBy)
			log.Debug().Str("original_sort", req.SortBy).Str("effective_sort", sortField).Msg("Appending .keyword for sorting")
		} else {
			log.Warn().Str("sort_field", req.SortBy).Msg("Attempting to sort on unknown field")
		}
	}

	searchRequest := &search.Request{
		Query: &types.Query{
			Bool: &types.BoolQuery{
				Filter: queryParts,
			},
		},
		Size: &req.Size,
		From: &from,
		Sort: []types.SortCombinations{
			types.SortOptions{
				SortOptions: map[string]types.FieldSort{
					sortField: {Order: &order},
				},
			},
		},
	}

	res, err := r.esTypedClient.Search().
		Index(indexPattern).
		Request(searchRequest).
		Do(ctx)

	if err != nil {
		log.Error().Err(err).Msg("Error executing Elasticsearch search via TypedClient")
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}

	events := make([]model.AuditEvent, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var event model.AuditEvent
		if hit.Source_ != nil {
			if err := json.Unmarshal(hit.Source_, &event); err != nil {
				log.Error().Err(err).Msg("Error unmarshalling Elasticsearch hit source")
				continue
			}
			events = append(events, event)
		}
	}

	response := &dto.AuditSearchResponse{
		Events:     events,
		TotalCount: res.Hits.Total.Value,
		Page:       req.Page,
		Size:       req.Size,
	}

	log.Debug().Int64("total_hits", response.TotalCount).Int("returned_hits", len(response.Events)).Msg("Elasticsearch search successful")
	return response, nil
}
