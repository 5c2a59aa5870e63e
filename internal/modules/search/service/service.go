package search

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/pkg/logger"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const ApplicationsIndex = "applications"

// ApplicationDocument is the searchable projection of an approved application.
type ApplicationDocument struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Status          string `json:"status"`
	CategorySlug    string `json:"category_slug"`
	CategoryName    string `json:"category_name"`
	TargetAmount    int64  `json:"target_amount"`
	CollectedAmount int64  `json:"collected_amount"`
	Username        string `json:"username"`
	CreatedAt       int64  `json:"created_at"`
}

type SearchService interface {
	IndexApplication(app *entity.Application) error
	DeleteApplication(id string) error
	SearchApplications(ctx context.Context, query string, limit, offset int) ([]ApplicationDocument, int64, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
	log       *logger.Logger
}

// NewSearchService returns a no-op service when client is nil so search stays optional.
func NewSearchService(client meilisearch.ServiceManager, log *logger.Logger) SearchService {
	log = log.With("service", "SearchService")
	if client == nil {
		log.Warn("meilisearch is not configured, search is disabled")
		return noopSearch{}
	}
	return &meiliSearchService{
		client:    client,
		sanitizer: newSanitizer(),
		log:       log,
	}
}

// InitIndexes sets filterable and sortable attributes. Failures are logged.
func InitIndexes(client meilisearch.ServiceManager, log *logger.Logger) {
	index := client.Index(ApplicationsIndex)

	filterable := []interface{}{"status", "category_slug"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Warn("failed to update applications filterable attributes", "error", err)
	}

	sortable := []string{"created_at", "collected_amount"}
	if _, err := index.UpdateSortableAttributes(&sortable); err != nil {
		log.Warn("failed to update applications sortable attributes", "error", err)
	}
}

func newSanitizer() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
}

func (s *meiliSearchService) cleanText(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	sanitized := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(sanitized), " ")
}

func (s *meiliSearchService) document(app *entity.Application) ApplicationDocument {
	doc := ApplicationDocument{
		ID:              app.ID.String(),
		Title:           app.Title,
		Description:     s.cleanText(app.Description),
		Status:          string(app.Status),
		TargetAmount:    app.TargetAmount,
		CollectedAmount: app.CollectedAmount,
		Username:        app.User.Username,
		CreatedAt:       app.CreatedAt.Unix(),
	}
	if app.Category != nil {
		doc.CategorySlug = app.Category.Slug
		doc.CategoryName = app.Category.Name
	}
	return doc
}

func (s *meiliSearchService) IndexApplication(app *entity.Application) error {
	doc := s.document(app)
	primaryKey := "id"
	task, err := s.client.Index(ApplicationsIndex).AddDocuments([]ApplicationDocument{doc}, &primaryKey)
	if err != nil {
		return fmt.Errorf("index application %s: %w", doc.ID, err)
	}
	s.log.Debug("indexed application", "application_id", doc.ID, "task_uid", task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteApplication(id string) error {
	if _, err := s.client.Index(ApplicationsIndex).DeleteDocument(id); err != nil {
		return fmt.Errorf("delete application %s from index: %w", id, err)
	}
	return nil
}

type rawSearchResult struct {
	Hits               []ApplicationDocument `json:"hits"`
	EstimatedTotalHits int64                 `json:"estimatedTotalHits"`
}

func (s *meiliSearchService) SearchApplications(ctx context.Context, query string, limit, offset int) ([]ApplicationDocument, int64, error) {
	raw, err := s.client.Index(ApplicationsIndex).SearchRawWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit:  int64(limit),
		Offset: int64(offset),
		Filter: "status IN [APPROVED, FUNDED]",
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search applications: %w", err)
	}

	var result rawSearchResult
	if err := json.Unmarshal(*raw, &result); err != nil {
		return nil, 0, fmt.Errorf("decode search result: %w", err)
	}
	if result.Hits == nil {
		result.Hits = []ApplicationDocument{}
	}
	return result.Hits, result.EstimatedTotalHits, nil
}

type noopSearch struct{}

func (noopSearch) IndexApplication(*entity.Application) error { return nil }
func (noopSearch) DeleteApplication(string) error             { return nil }
func (noopSearch) SearchApplications(context.Context, string, int, int) ([]ApplicationDocument, int64, error) {
	return []ApplicationDocument{}, 0, nil
}
