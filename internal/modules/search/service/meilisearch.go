package service

import (
	"fmt"
	"strconv"
	"time"

	"anoa.com/handchatter/internal/entity"
	"anoa.com/handchatter/pkg/logger"
	"anoa.com/handchatter/pkg/sanitize"
	"github.com/meilisearch/meilisearch-go"
)

const (
	TutorsIndex    = "tutors"
	signingKeyName = "TutorSearchSigner"
)

// TutorIndex keeps the tutor search index in sync with accounts and signs
// search-only tokens for clients.
type TutorIndex interface {
	IndexTutor(tutor *entity.Account) error
	DeleteTutor(idx uint) error
	GenerateSearchToken() (string, error)
}

type meiliTutorIndex struct {
	client        meilisearch.ServiceManager
	signingKeyUID string
	signingKey    string
	tokenTTL      time.Duration
}

func NewMeiliTutorIndex(client meilisearch.ServiceManager, tokenTTL time.Duration) TutorIndex {
	s := &meiliTutorIndex{client: client, tokenTTL: tokenTTL}
	s.initIndex()
	s.initSigningKey()
	return s
}

func (s *meiliTutorIndex) initIndex() {
	log := logger.WithComponent("search")

	filterable := []any{"price", "authority"}
	if _, err := s.client.Index(TutorsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.WithError(err).Warn("failed to update tutors filterable attributes")
	}

	sortable := []string{"price", "created_at"}
	if _, err := s.client.Index(TutorsIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.WithError(err).Warn("failed to update tutors sortable attributes")
	}
}

func (s *meiliTutorIndex) initSigningKey() {
	log := logger.WithComponent("search")

	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{Limit: 20})
	if err != nil {
		log.WithError(err).Warn("failed to list meilisearch keys")
		return
	}

	for _, key := range resp.Results {
		if key.Name == signingKeyName {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			return
		}
	}

	key, err := s.client.CreateKey(&meilisearch.Key{
		Name:        signingKeyName,
		Description: "Signs tenant tokens for tutor search",
		Actions:     []string{"search"},
		Indexes:     []string{TutorsIndex},
		ExpiresAt:   time.Now().AddDate(100, 0, 0),
	})
	if err != nil {
		log.WithError(err).Warn("failed to create meilisearch signing key")
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	log.Info("created meilisearch signing key")
}

type tutorDoc struct {
	ID          string `json:"id"`
	Idx         uint   `json:"idx"`
	Nickname    string `json:"nickname"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	ProfileImg  string `json:"profile_img"`
	Authority   bool   `json:"authority"`
	CreatedAt   int64  `json:"created_at"`
}

func newTutorDoc(tutor *entity.Account) tutorDoc {
	return tutorDoc{
		ID:          strconv.FormatUint(uint64(tutor.Idx), 10),
		Idx:         tutor.Idx,
		Nickname:    tutor.Nickname,
		Description: sanitize.Text(tutor.Description),
		Price:       tutor.Price,
		ProfileImg:  tutor.ProfileImg,
		Authority:   tutor.Authority,
		CreatedAt:   tutor.CreatedAt.Unix(),
	}
}

func (s *meiliTutorIndex) IndexTutor(tutor *entity.Account) error {
	if tutor == nil || !tutor.IsTutor() {
		return nil
	}

	task, err := s.client.Index(TutorsIndex).AddDocuments([]tutorDoc{newTutorDoc(tutor)}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("failed to index tutor %d: %w", tutor.Idx, err)
	}
	logger.WithComponent("search").WithField("task_uid", task.TaskUID).Debugf("indexed tutor %d", tutor.Idx)
	return nil
}

func (s *meiliTutorIndex) DeleteTutor(idx uint) error {
	if _, err := s.client.Index(TutorsIndex).DeleteDocument(strconv.FormatUint(uint64(idx), 10)); err != nil {
		return fmt.Errorf("failed to delete tutor %d from index: %w", idx, err)
	}
	return nil
}

func (s *meiliTutorIndex) GenerateSearchToken() (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	rules := map[string]any{TutorsIndex: map[string]any{}}
	return s.client.GenerateTenantToken(s.signingKeyUID, rules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	})
}

func strPtr(s string) *string {
	return &s
}

type noopTutorIndex struct{}

// NewNoopTutorIndex is used when no search engine is configured.
func NewNoopTutorIndex() TutorIndex {
	return noopTutorIndex{}
}

func (noopTutorIndex) IndexTutor(*entity.Account) error     { return nil }
func (noopTutorIndex) DeleteTutor(uint) error               { return nil }
func (noopTutorIndex) GenerateSearchToken() (string, error) { return "", nil }
