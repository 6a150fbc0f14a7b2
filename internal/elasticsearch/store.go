package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"one-ui-backend/config"
	"one-ui-backend/internal/model"
	"one-ui-backend/internal/util"
)

type AuditStore interface {
	StoreEvents(ctx context.Context, events []model.AuditEvent) error
	PruneIndices(ctx context.Context, keepDays int) error
	Close(ctx context.Context) error
}

type elasticAuditStore struct {
	client      *elasticsearch.Client
	bulkIndexer esutil.BulkIndexer
	indexPrefix string
	countFailed uint64
}

func NewElasticAuditStore(lc fx.Lifecycle, cfg *config.Config) (AuditStore, *elasticsearch.Client, error) {
	if len(cfg.Elasticsearch.Addresses) == 0 {
		log.Error().Msg("Elasticsearch addresses are not configured.")
		return nil, nil, errors.New("elasticsearch configuration missing")
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: time.Second * 10,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
	}
	esCfg := elasticsearch.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
		Transport: transport,
	}

	var esClient *elasticsearch.Client
	var err error
	operation := func() error {
		esClient, err = elasticsearch.NewClient(esCfg)
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: Error creating the Elasticsearch client")
			return err
		}

		// Verify connection (ping)
		res, errPing := esClient.Info(
			esClient.Info.WithContext(context.Background()),
		)
		if errPing != nil {
			log.Warn().Err(errPing).Msg("Attempt failed: Error during Elasticsearch Info() call (transport level)")
			return errPing
		}
		defer res.Body.Close()
		if res.IsError() {
			errMsg := fmt.Errorf("elasticsearch Info() returned error status: %s", res.Status())
			log.Warn().Err(errMsg).Msg("Attempt failed: Elasticsearch ping returned error status")
			return errMsg
		}
		log.Info().Msg("Elasticsearch client initialized and connection verified")
		return nil
	}

	connectBackoff := backoff.NewExponentialBackOff()
	connectBackoff.InitialInterval = 2 * time.Second
	connectBackoff.MaxInterval = 15 * time.Second
	connectBackoff.MaxElapsedTime = 90 * time.Second

	log.Info().Msg("Attempting to connect to Elasticsearch with retries...")
	err = backoff.Retry(operation, connectBackoff)

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Elasticsearch after multiple retries")
		return nil, nil, err
	}

	store := &elasticAuditStore{
		client:      esClient,
		indexPrefix: cfg.Elasticsearch.AuditIndex,
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        esClient,
		Index:         store.indexName(time.Now()), // Default index, overridden per item
		NumWorkers:    cfg.Elasticsearch.BulkWorkers,
		FlushBytes:    cfg.Elasticsearch.FlushBytes,
		FlushInterval: cfg.Elasticsearch.FlushInterval,
		OnError: func(ctx context.Context, err error) {
			log.Error().Err(err).Msg("BulkIndexer error")
		},
		OnFlushStart: func(ctx context.Context) context.Context {
			log.Debug().Msg("BulkIndexer flush starting")
			return ctx
		},
		OnFlushEnd: func(ctx context.Context) {
			log.Debug().Msg("BulkIndexer flush ended")
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating the BulkIndexer")
		return nil, nil, err
	}
	store.bulkIndexer = bi
	log.Info().Msg("Elasticsearch BulkIndexer initialized")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Elasticsearch BulkIndexer...")
			return store.Close(ctx)
		},
	})

	return store, esClient, nil
}

// StoreEvents queues audit events on the bulk indexer. Events land in the
// daily index matching their own timestamp, not the ingestion time, so
// replayed events stay queryable by their time range.
func (s *elasticAuditStore) StoreEvents(ctx context.Context, events []model.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	currentFailed := atomic.LoadUint64(&s.countFailed)

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal audit event for Elasticsearch")
			atomic.AddUint64(&s.countFailed, 1)
			continue
		}

		err = s.bulkIndexer.Add(
			ctx,
			esutil.BulkIndexerItem{
				Action: "index",
				Index:  s.indexName(event.Timestamp),
				Body:   bytes.NewReader(data),
			},
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to add item to BulkIndexer")
			atomic.AddUint64(&s.countFailed, 1)
		}
	}
	log.Debug().Int("count", len(events)).Msg("Added audit events to Elasticsearch BulkIndexer queue")

	if atomic.LoadUint64(&s.countFailed) > currentFailed {
		return errors.New("one or more events failed during bulk indexing attempt")
	}

	return nil
}

// PruneIndices deletes daily audit indices older than keepDays. Index names
// that do not parse as <prefix>-YYYY-MM-DD are left alone.
func (s *elasticAuditStore) PruneIndices(ctx context.Context, keepDays int) error {
	if keepDays <= 0 {
		return nil
	}

	res, err := s.client.Cat.Indices(
		s.client.Cat.Indices.WithContext(ctx),
		s.client.Cat.Indices.WithIndex(s.indexPrefix+"-*"),
		s.client.Cat.Indices.WithFormat("json"),
		s.client.Cat.Indices.WithH("index"),
	)
	if err != nil {
		return fmt.Errorf("failed to list audit indices: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("listing audit indices returned status %s", res.Status())
	}

	var rows []struct {
		Index string `json:"index"`
	}
	if err := json.NewDecoder(res.Body).Decode(&rows); err != nil {
		return fmt.Errorf("failed to decode index listing: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -keepDays)
	var stale []string
	for _, row := range rows {
		suffix := strings.TrimPrefix(row.Index, s.indexPrefix+"-")
		day, err := time.Parse("2006-01-02", suffix)
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			stale = append(stale, row.Index)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	del, err := s.client.Indices.Delete(stale, s.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete stale audit indices: %w", err)
	}
	defer del.Body.Close()
	if del.IsError() {
		return fmt.Errorf("deleting stale audit indices returned status %s", del.Status())
	}
	log.Info().Strs("indices", stale).Int("keep_days", keepDays).Msg("Pruned stale audit indices")
	return nil
}

func (s *elasticAuditStore) Close(ctx context.Context) error {
	log.Info().Msg("Attempting to close BulkIndexer...")
	err := s.bulkIndexer.Close(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error closing BulkIndexer")
	} else {
		log.Info().Msg("BulkIndexer closed.")
	}

	stats := s.bulkIndexer.Stats()
	log.Info().
		Uint64("indexed", stats.NumIndexed).
		Uint64("added", stats.NumAdded).
		Uint64("flushed", stats.NumFlushed).
		Uint64("failed", stats.NumFailed).
		Uint64("requests", stats.NumRequests).
		Msg("Elasticsearch BulkIndexer final stats")

	return err
}

// indexName generates the daily index name, e.g. "audit-2024-06-01".
func (s *elasticAuditStore) indexName(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return util.DayIndex(s.indexPrefix, t)
}
