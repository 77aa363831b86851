package service

import (
	"context"
	"log/slog"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/cache"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

type FAQInput struct {
	Question    *string `json:"question"`
	Answer      *string `json:"answer"`
	Category    *string `json:"category"`
	SortOrder   *int    `json:"sort_order"`
	IsPublished *bool   `json:"is_published"`
}

type FAQService struct {
	repo  FAQStore
	cache cache.QueryCache
	log   *slog.Logger
}

func NewFAQService(repo FAQStore, qc cache.QueryCache, log *slog.Logger) *FAQService {
	return &FAQService{repo: repo, cache: qc, log: log}
}

// List returns every FAQ, published or not, by category and sort order.
func (s *FAQService) List(ctx context.Context, session *access.Session) ([]domain.FAQ, error) {
	if err := access.RequirePermission(session, access.PermRead); err != nil {
		return nil, err
	}
	return s.repo.ListFAQs(ctx, false)
}

// Create publishes the FAQ unless told otherwise.
func (s *FAQService) Create(ctx context.Context, session *access.Session, in FAQInput) (*domain.FAQ, error) {
	if err := access.RequirePermission(session, access.PermCreate); err != nil {
		return nil, err
	}
	f := &domain.FAQ{IsPublished: true}
	applyFAQInput(f, in)
	if err := validateFAQ(f); err != nil {
		return nil, err
	}
	if err := s.repo.CreateFAQ(ctx, f); err != nil {
		return nil, err
	}
	invalidateQueries(ctx, s.cache, s.log, keyFAQs)
	return f, nil
}

func (s *FAQService) Update(ctx context.Context, session *access.Session, id uuid.UUID, in FAQInput) (*domain.FAQ, error) {
	if err := access.RequirePermission(session, access.PermUpdate); err != nil {
		return nil, err
	}
	f, err := s.repo.GetFAQ(ctx, id)
	if err != nil {
		return nil, err
	}
	applyFAQInput(f, in)
	if err := validateFAQ(f); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateFAQ(ctx, f); err != nil {
		return nil, err
	}
	invalidateQueries(ctx, s.cache, s.log, keyFAQs)
	return f, nil
}

func (s *FAQService) Delete(ctx context.Context, session *access.Session, id uuid.UUID) error {
	if err := access.RequirePermission(session, access.PermDelete); err != nil {
		return err
	}
	if err := s.repo.DeleteFAQ(ctx, id); err != nil {
		return err
	}
	invalidateQueries(ctx, s.cache, s.log, keyFAQs)
	return nil
}

func applyFAQInput(f *domain.FAQ, in FAQInput) {
	setString(&f.Question, in.Question)
	setString(&f.Answer, in.Answer)
	setString(&f.Category, in.Category)
	if in.SortOrder != nil {
		f.SortOrder = *in.SortOrder
	}
	if in.IsPublished != nil {
		f.IsPublished = *in.IsPublished
	}
}

func validateFAQ(f *domain.FAQ) error {
	switch {
	case f.Question == "":
		return domain.Invalid("question", "question is required")
	case f.Answer == "":
		return domain.Invalid("answer", "answer is required")
	case f.Category == "":
		return domain.Invalid("category", "category is required")
	}
	return nil
}
