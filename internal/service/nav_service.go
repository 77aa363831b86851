package service

import (
	"context"
	"log/slog"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/cache"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
)

// NavInput is a partial nav item. An empty ParentID moves the item to the top level.
type NavInput struct {
	Label     *string             `json:"label"`
	Href      *string             `json:"href"`
	Location  *domain.NavLocation `json:"location"`
	ParentID  *string             `json:"parent_id"`
	SortOrder *int                `json:"sort_order"`
	IsVisible *bool               `json:"is_visible"`
}

type NavService struct {
	repo  NavStore
	cache cache.QueryCache
	log   *slog.Logger
}

func NewNavService(repo NavStore, qc cache.QueryCache, log *slog.Logger) *NavService {
	return &NavService{repo: repo, cache: qc, log: log}
}

// List returns every item of a location, or of both when location is empty,
// as a tree.
func (s *NavService) List(ctx context.Context, session *access.Session, location domain.NavLocation) ([]domain.NavItem, error) {
	if err := access.RequirePermission(session, access.PermRead); err != nil {
		return nil, err
	}
	if location != "" && !location.Valid() {
		return nil, domain.Invalid("location", "must be header or footer")
	}
	items, err := s.repo.ListNavItems(ctx, location, false)
	if err != nil {
		return nil, err
	}
	return buildNavTree(items), nil
}

func (s *NavService) Create(ctx context.Context, session *access.Session, in NavInput) (*domain.NavItem, error) {
	if err := access.RequirePermission(session, access.PermCreate); err != nil {
		return nil, err
	}
	n := &domain.NavItem{Location: domain.NavHeader, IsVisible: true}
	if err := applyNavInput(n, in); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, n); err != nil {
		return nil, err
	}
	if err := s.repo.CreateNavItem(ctx, n); err != nil {
		return nil, err
	}
	invalidateQueries(ctx, s.cache, s.log, keyNav)
	return n, nil
}

func (s *NavService) Update(ctx context.Context, session *access.Session, id uuid.UUID, in NavInput) (*domain.NavItem, error) {
	if err := access.RequirePermission(session, access.PermUpdate); err != nil {
		return nil, err
	}
	n, err := s.repo.GetNavItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyNavInput(n, in); err != nil {
		return nil, err
	}
	if n.ParentID.Valid && n.ParentID.UUID == n.ID {
		return nil, domain.Invalid("parent_id", "an item cannot be its own parent")
	}
	if err := s.validate(ctx, n); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateNavItem(ctx, n); err != nil {
		return nil, err
	}
	invalidateQueries(ctx, s.cache, s.log, keyNav)
	return n, nil
}

// Delete removes an item together with its children.
func (s *NavService) Delete(ctx context.Context, session *access.Session, id uuid.UUID) error {
	if err := access.RequirePermission(session, access.PermDelete); err != nil {
		return err
	}
	if err := s.repo.DeleteNavItem(ctx, id); err != nil {
		return err
	}
	invalidateQueries(ctx, s.cache, s.log, keyNav)
	return nil
}

// validate keeps the menu two levels deep: a parent must be a top-level
// item of the same location.
func (s *NavService) validate(ctx context.Context, n *domain.NavItem) error {
	switch {
	case n.Label == "":
		return domain.Invalid("label", "label is required")
	case n.Href == "":
		return domain.Invalid("href", "href is required")
	case !n.Location.Valid():
		return domain.Invalid("location", "must be header or footer")
	}
	if !n.ParentID.Valid {
		return nil
	}
	parent, err := s.repo.GetNavItem(ctx, n.ParentID.UUID)
	if err != nil {
		return domain.Invalid("parent_id", "parent item does not exist")
	}
	if parent.ParentID.Valid || parent.Location != n.Location {
		return domain.Invalid("parent_id", "parent must be a top-level item of the same location")
	}
	return nil
}

func applyNavInput(n *domain.NavItem, in NavInput) error {
	setString(&n.Label, in.Label)
	setString(&n.Href, in.Href)
	if in.Location != nil {
		n.Location = *in.Location
	}
	if in.ParentID != nil {
		n.ParentID = uuid.NullUUID{}
		if *in.ParentID != "" {
			id, err := uuid.Parse(*in.ParentID)
			if err != nil {
				return domain.Invalid("parent_id", "must be a uuid")
			}
			n.ParentID = uuid.NullUUID{UUID: id, Valid: true}
		}
	}
	if in.SortOrder != nil {
		n.SortOrder = *in.SortOrder
	}
	if in.IsVisible != nil {
		n.IsVisible = *in.IsVisible
	}
	return nil
}

// buildNavTree nests children under their parents. Items whose parent is
// not in the list are dropped, so a hidden parent hides its children.
func buildNavTree(items []domain.NavItem) []domain.NavItem {
	children := make(map[uuid.UUID][]domain.NavItem)
	for _, item := range items {
		if item.ParentID.Valid {
			children[item.ParentID.UUID] = append(children[item.ParentID.UUID], item)
		}
	}

	roots := make([]domain.NavItem, 0)
	for _, item := range items {
		if item.ParentID.Valid {
			continue
		}
		item.Children = children[item.ID]
		roots = append(roots, item)
	}
	return roots
}
