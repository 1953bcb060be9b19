package service

import (
	"fmt"
	"html"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"anoa.com/facultydir/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

type SearchService interface {
	IndexProfile(profile *entity.Profile) error
	DeleteProfile(id uint) error
	GenerateSearchToken() (string, error)
}

type searchService struct {
	client        meilisearch.ServiceManager
	masterKey     string
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	masterKey := os.Getenv("MEILI_MASTER_KEY")
	if masterKey == "" {
		log.Println("WARNING: MEILI_MASTER_KEY is not set.")
	}

	s := &searchService{
		client:    client,
		masterKey: masterKey,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *searchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{
		Limit: 20,
	})
	if err != nil {
		log.Printf("Failed to get meilisearch keys: %v", err)
		return
	}

	for _, key := range resp.Results {
		if key.Name == "TenantTokenSigner" {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			log.Println("Found existing Meilisearch signing key")
			return
		}
	}

	expiry := time.Now().AddDate(100, 0, 0)

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign tenant tokens",
		Name:        "TenantTokenSigner",
		Actions:     []string{"search"},
		Indexes:     []string{"profiles"},
		ExpiresAt:   expiry,
	})
	if err != nil {
		log.Printf("Failed to create signing key: %v", err)
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	log.Println("Created new Meilisearch signing key")
}

func (s *searchService) initIndexes() {
	filterableAttrs := []string{"department"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index("profiles").UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("Failed to update profiles filterable attributes: %v", err)
	}

	sortableAttrs := []string{"name", "created_at"}
	if _, err := s.client.Index("profiles").UpdateSortableAttributes(&sortableAttrs); err != nil {
		log.Printf("Failed to update profiles sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliProfileDoc struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Department     string `json:"department"`
	Title          string `json:"title"`
	Bio            string `json:"bio"`
	Qualifications string `json:"qualifications"`
	Research       string `json:"research"`
	CreatedAt      int64  `json:"created_at"`
}

func (s *searchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	cleanText = strings.Join(strings.Fields(cleanText), " ")

	return cleanText
}

func (s *searchService) IndexProfile(profile *entity.Profile) error {
	doc := meiliProfileDoc{
		ID:             strconv.FormatUint(uint64(profile.ID), 10),
		Name:           profile.Name,
		Department:     profile.Department,
		Title:          profile.Title,
		Bio:            s.cleanContentForIndex(profile.Bio),
		Qualifications: s.cleanContentForIndex(profile.Qualifications),
		Research:       s.cleanContentForIndex(profile.Research),
		CreatedAt:      profile.CreatedAt.Unix(),
	}

	task, err := s.client.Index("profiles").AddDocuments([]meiliProfileDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed profile %d, task id: %d", profile.ID, task.TaskUID)
	return nil
}

func (s *searchService) DeleteProfile(id uint) error {
	_, err := s.client.Index("profiles").DeleteDocument(strconv.FormatUint(uint64(id), 10))
	return err
}

func (s *searchService) GenerateSearchToken() (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	// The directory is publicly readable, so tenant tokens carry no filter.
	searchRules := map[string]any{
		"profiles": map[string]any{"filter": nil},
	}

	token, err := s.client.GenerateTenantToken(s.signingKeyUID, searchRules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

func strPtr(s string) *string {
	return &s
}
