package grocery

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fdg312/mealcart/internal/storage"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// PlanChange says whether a plan entry appeared or disappeared.
type PlanChange int

const (
	PlanAdded PlanChange = iota
	PlanRemoved
)

// ItemsStorage is the storage the store keeps outside of aggregation.
type ItemsStorage interface {
	storage.ManualItemsStorage
	storage.GroceryChecksStorage
}

// Store serves merged grocery lists and the manual items kept beside them.
//
// Merged views are cached per (owner, start, end). Plan changes update the
// cached views of the affected owner in place of a full reload; recipe
// changes drop every view that contains the recipe. Either way a cached view
// always equals what ComputeList returns for the same plan state.
type Store struct {
	aggregator *Aggregator
	items      ItemsStorage
	views      *cache.Cache
	logger     *zap.Logger

	mu     sync.Mutex
	owners map[string]*sync.RWMutex

	// Held shared while a view is built and published, exclusively while
	// recipe changes evict views.
	recipeMu sync.RWMutex
}

// NewStore creates a store whose cached views expire after ttl.
func NewStore(aggregator *Aggregator, items ItemsStorage, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{
		aggregator: aggregator,
		items:      items,
		views:      cache.New(ttl, 2*ttl),
		logger:     logger,
		owners:     make(map[string]*sync.RWMutex),
	}
}

func (s *Store) ownerLock(owner string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.owners[owner]
	if !ok {
		l = &sync.RWMutex{}
		s.owners[owner] = l
	}
	return l
}

// LockOwner starts a plan mutation for owner. Call OnPlanChanged before the
// returned unlock so the mutation and the view update are atomic.
func (s *Store) LockOwner(owner string) (unlock func()) {
	l := s.ownerLock(owner)
	l.Lock()
	return l.Unlock
}

func viewKey(owner, start, end string) string {
	return owner + "|" + start + "|" + end
}

// OnPlanChanged applies a plan entry change to every cached view of owner
// whose range contains date. The caller holds LockOwner(owner).
func (s *Store) OnPlanChanged(ctx context.Context, owner, date string, recipeID uuid.UUID, change PlanChange) {
	s.recipeMu.RLock()
	defer s.recipeMu.RUnlock()

	prefix := owner + "|"
	for key, item := range s.views.Items() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		v, ok := item.Object.(*view)
		if !ok || v.owner != owner || !v.covers(date) {
			continue
		}

		next, err := s.applyChange(ctx, v, recipeID, change)
		if err != nil {
			s.views.Delete(key)
			s.logger.Warn("grocery view dropped after failed update",
				zap.String("owner_user_id", owner), zap.String("view", key), zap.Error(err))
			continue
		}
		s.views.SetDefault(key, next)
	}
}

func (s *Store) applyChange(ctx context.Context, v *view, recipeID uuid.UUID, change PlanChange) (*view, error) {
	next := v.clone()
	switch change {
	case PlanAdded:
		if next.planned[recipeID] == 0 {
			if err := s.aggregator.loadRecipes(ctx, next, []uuid.UUID{recipeID}); err != nil {
				return nil, err
			}
		}
		next.planned[recipeID]++
	case PlanRemoved:
		if next.planned[recipeID] <= 1 {
			delete(next.planned, recipeID)
			delete(next.lines, recipeID)
		} else {
			next.planned[recipeID]--
		}
	}
	s.aggregator.recompute(next)
	return next, nil
}

// OnRecipeChanged drops every cached view that includes recipeID. Call it
// after the recipe's lines were replaced or removed.
func (s *Store) OnRecipeChanged(recipeID uuid.UUID) {
	s.recipeMu.Lock()
	defer s.recipeMu.Unlock()

	for key, item := range s.views.Items() {
		if v, ok := item.Object.(*view); ok && v.planned[recipeID] > 0 {
			s.views.Delete(key)
		}
	}
}

// Aggregated returns the merged recipe lines for the range, from cache when
// possible.
func (s *Store) Aggregated(ctx context.Context, owner, start, end string) (Result, error) {
	l := s.ownerLock(owner)
	l.RLock()
	defer l.RUnlock()

	s.recipeMu.RLock()
	defer s.recipeMu.RUnlock()

	key := viewKey(owner, start, end)
	if item, ok := s.views.Get(key); ok {
		if v, ok := item.(*view); ok {
			return v.result, nil
		}
	}

	v, err := s.aggregator.loadView(ctx, owner, start, end)
	if err != nil {
		return Result{}, err
	}
	s.views.SetDefault(key, v)
	return v.result, nil
}

// CurrentList overlays the merged lines with their check marks and the
// owner's manual items.
func (s *Store) CurrentList(ctx context.Context, owner, start, end string) (List, error) {
	res, err := s.Aggregated(ctx, owner, start, end)
	if err != nil {
		return List{}, err
	}

	checked, err := s.items.ListCheckedLines(ctx, owner)
	if err != nil {
		return List{}, fmt.Errorf("list checked lines: %w", err)
	}
	manual, err := s.items.ListManualItems(ctx, owner)
	if err != nil {
		return List{}, fmt.Errorf("list manual items: %w", err)
	}

	list := List{Start: start, End: end, Manual: manual, Warnings: res.Warnings}
	list.Lines = make([]ListLine, 0, len(res.Lines))
	for _, line := range res.Lines {
		list.Lines = append(list.Lines, ListLine{
			Line:    line,
			Aisle:   AisleFor(line.Name),
			Checked: checked[line.Key],
		})
	}
	return list, nil
}

// AddManualItem stores a hand-written entry. Label is required.
func (s *Store) AddManualItem(ctx context.Context, owner, label string, qty *big.Rat, unit string) (storage.ManualItem, error) {
	item := storage.ManualItem{
		ID:          uuid.New(),
		OwnerUserID: owner,
		Label:       label,
		Quantity:    qty,
		Unit:        unit,
	}
	if err := s.items.CreateManualItem(ctx, &item); err != nil {
		return storage.ManualItem{}, fmt.Errorf("create manual item: %w", err)
	}
	return item, nil
}

// RemoveManualItem deletes a manual item. Removing one that is already gone
// succeeds.
func (s *Store) RemoveManualItem(ctx context.Context, owner string, id uuid.UUID) error {
	err := s.items.DeleteManualItem(ctx, owner, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete manual item: %w", err)
	}
	return nil
}

// SetLineChecked marks a merged line, by key, as bought or not.
func (s *Store) SetLineChecked(ctx context.Context, owner, key string, checked bool) error {
	if err := s.items.SetLineChecked(ctx, owner, key, checked); err != nil {
		return fmt.Errorf("set line checked: %w", err)
	}
	return nil
}

// SetManualChecked marks a manual item as bought or not.
func (s *Store) SetManualChecked(ctx context.Context, owner string, id uuid.UUID, checked bool) error {
	return s.items.SetManualItemChecked(ctx, owner, id, checked)
}

// ClearChecked deletes checked manual items and forgets line check marks.
// It returns how many manual items were removed.
func (s *Store) ClearChecked(ctx context.Context, owner string) (int, error) {
	n, err := s.items.DeleteCheckedManualItems(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("delete checked manual items: %w", err)
	}
	if err := s.items.ClearCheckedLines(ctx, owner); err != nil {
		return n, fmt.Errorf("clear checked lines: %w", err)
	}
	return n, nil
}

// Verify recomputes the range from scratch and reports whether it matches
// the cached view. A range without a cached view trivially matches.
func (s *Store) Verify(ctx context.Context, owner, start, end string) (bool, error) {
	l := s.ownerLock(owner)
	l.RLock()
	defer l.RUnlock()

	s.recipeMu.RLock()
	defer s.recipeMu.RUnlock()

	item, ok := s.views.Get(viewKey(owner, start, end))
	if !ok {
		return true, nil
	}
	cached, ok := item.(*view)
	if !ok {
		return false, nil
	}

	fresh, err := s.aggregator.ComputeList(ctx, owner, start, end)
	if err != nil {
		return false, err
	}
	return EqualLines(cached.result.Lines, fresh.Lines), nil
}

// EqualLines compares two merged lists value by value.
func EqualLines(a, b []Line) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalLine(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalLine(a, b Line) bool {
	if a.Key != b.Key || a.IngredientID != b.IngredientID || a.Name != b.Name ||
		a.Group != b.Group || a.Unit != b.Unit || a.Mixed != b.Mixed || a.ToTaste != b.ToTaste {
		return false
	}
	if !equalRat(a.Total, b.Total) {
		return false
	}
	if len(a.Breakdown) != len(b.Breakdown) || len(a.SourceRecipeIDs) != len(b.SourceRecipeIDs) {
		return false
	}
	for i := range a.Breakdown {
		if a.Breakdown[i].Unit != b.Breakdown[i].Unit || !equalRat(a.Breakdown[i].Quantity, b.Breakdown[i].Quantity) {
			return false
		}
	}
	for i := range a.SourceRecipeIDs {
		if a.SourceRecipeIDs[i] != b.SourceRecipeIDs[i] {
			return false
		}
	}
	return true
}

func equalRat(a, b *big.Rat) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Cmp(b) == 0
}

// List is the merged view handed to clients.
type List struct {
	Start    string
	End      string
	Lines    []ListLine
	Manual   []storage.ManualItem
	Warnings []Warning
}

// ListLine is a merged line with its presentation state.
type ListLine struct {
	Line
	Aisle   string
	Checked bool
}

// ByAisle groups the unchecked lines by aisle in shopping order, names
// alphabetical within an aisle.
func (l List) ByAisle() []AisleGroup {
	byAisle := make(map[string][]ListLine)
	for _, line := range l.Lines {
		if line.Checked {
			continue
		}
		byAisle[line.Aisle] = append(byAisle[line.Aisle], line)
	}

	groups := make([]AisleGroup, 0, len(byAisle))
	for aisle, lines := range byAisle {
		groups = append(groups, AisleGroup{Aisle: aisle, Lines: lines})
	}
	sort.Slice(groups, func(i, j int) bool {
		ri, rj := aisleRank(groups[i].Aisle), aisleRank(groups[j].Aisle)
		if ri != rj {
			return ri < rj
		}
		return groups[i].Aisle < groups[j].Aisle
	})
	return groups
}

// AisleGroup is one aisle's share of a list.
type AisleGroup struct {
	Aisle string
	Lines []ListLine
}
