package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ecommerce-reco/apps/recommendation-service/model"
)

// fakeSignalStore SignalDAO的内存实现，用于单元测试
type fakeSignalStore struct {
	mu sync.Mutex

	interactions     map[string][]*model.Interaction
	popularity       map[string]float64
	coOccurrence     map[string]map[string]float64
	profileCounts    map[string]int64
	purchased        map[string]map[string]struct{}
	categoryAffinity map[string]map[string]float64
	categoryPopular  map[string]map[string]float64
	metadata         map[string]*model.ProductMetadata
	categoryMembers  map[string]map[string]struct{}

	failPopularity bool
	failLog        bool
}

func newFakeSignalStore() *fakeSignalStore {
	return &fakeSignalStore{
		interactions:     make(map[string][]*model.Interaction),
		popularity:       make(map[string]float64),
		coOccurrence:     make(map[string]map[string]float64),
		profileCounts:    make(map[string]int64),
		purchased:        make(map[string]map[string]struct{}),
		categoryAffinity: make(map[string]map[string]float64),
		categoryPopular:  make(map[string]map[string]float64),
		metadata:         make(map[string]*model.ProductMetadata),
		categoryMembers:  make(map[string]map[string]struct{}),
	}
}

func (f *fakeSignalStore) AppendInteraction(ctx context.Context, userID string, entry *model.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLog {
		return fmt.Errorf("写入交互日志失败")
	}
	// 最新在前
	f.interactions[userID] = append([]*model.Interaction{entry}, f.interactions[userID]...)
	if len(f.interactions[userID]) > model.MaxInteractionLogSize {
		f.interactions[userID] = f.interactions[userID][:model.MaxInteractionLogSize]
	}
	return nil
}

func (f *fakeSignalStore) GetUserInteractions(ctx context.Context, userID string, limit int64) ([]*model.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.interactions[userID]
	if int64(len(list)) > limit {
		list = list[:limit]
	}
	out := make([]*model.Interaction, len(list))
	copy(out, list)
	return out, nil
}

func (f *fakeSignalStore) IncrPopularity(ctx context.Context, productID string, weight float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPopularity {
		return fmt.Errorf("更新热度失败")
	}
	f.popularity[productID] += weight
	return nil
}

func (f *fakeSignalStore) GetPopular(ctx context.Context, limit int64) ([]model.ScoredEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return rankDesc(f.popularity, limit), nil
}

func (f *fakeSignalStore) IncrCoOccurrence(ctx context.Context, productID, otherID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incrCo(productID, otherID)
	f.incrCo(otherID, productID)
	return nil
}

func (f *fakeSignalStore) incrCo(a, b string) {
	if f.coOccurrence[a] == nil {
		f.coOccurrence[a] = make(map[string]float64)
	}
	f.coOccurrence[a][b]++
}

func (f *fakeSignalStore) GetCoOccurrents(ctx context.Context, productID string, limit int64) ([]model.ScoredEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return rankDesc(f.coOccurrence[productID], limit), nil
}

func (f *fakeSignalStore) TouchProfile(ctx context.Context, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCounts[userID]++
	return nil
}

func (f *fakeSignalStore) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count, ok := f.profileCounts[userID]
	if !ok {
		return nil, nil
	}
	return &model.UserProfile{UserID: userID, InteractionCount: count}, nil
}

func (f *fakeSignalStore) AddPurchased(ctx context.Context, userID, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.purchased[userID] == nil {
		f.purchased[userID] = make(map[string]struct{})
	}
	f.purchased[userID][productID] = struct{}{}
	return nil
}

func (f *fakeSignalStore) GetPurchased(ctx context.Context, userID string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]struct{}, len(f.purchased[userID]))
	for pid := range f.purchased[userID] {
		out[pid] = struct{}{}
	}
	return out, nil
}

func (f *fakeSignalStore) IncrCategoryAffinity(ctx context.Context, userID, categoryID string, weight float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.categoryAffinity[userID] == nil {
		f.categoryAffinity[userID] = make(map[string]float64)
	}
	f.categoryAffinity[userID][categoryID] += weight
	return nil
}

func (f *fakeSignalStore) GetPreferredCategories(ctx context.Context, userID string, limit int64) ([]model.ScoredEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return rankDesc(f.categoryAffinity[userID], limit), nil
}

func (f *fakeSignalStore) IncrCategoryPopularity(ctx context.Context, categoryID, productID string, weight float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.categoryPopular[categoryID] == nil {
		f.categoryPopular[categoryID] = make(map[string]float64)
	}
	f.categoryPopular[categoryID][productID] += weight
	return nil
}

func (f *fakeSignalStore) GetCategoryPopular(ctx context.Context, categoryID string, limit int64) ([]model.ScoredEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return rankDesc(f.categoryPopular[categoryID], limit), nil
}

func (f *fakeSignalStore) UpsertProductMetadata(ctx context.Context, meta *model.ProductMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadata[meta.ProductID] = meta
	if meta.CategoryID != "" {
		if f.categoryMembers[meta.CategoryID] == nil {
			f.categoryMembers[meta.CategoryID] = make(map[string]struct{})
		}
		f.categoryMembers[meta.CategoryID][meta.ProductID] = struct{}{}
	}
	return nil
}

func (f *fakeSignalStore) GetProductMetadata(ctx context.Context, productID string) (*model.ProductMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metadata[productID], nil
}

func (f *fakeSignalStore) GetCategoryMembers(ctx context.Context, categoryID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := make([]string, 0, len(f.categoryMembers[categoryID]))
	for pid := range f.categoryMembers[categoryID] {
		members = append(members, pid)
	}
	sort.Strings(members)
	return members, nil
}

// rankDesc 按分数降序排序，分数相同时按成员字典序降序，与Redis的ZREVRANGE一致
func rankDesc(scores map[string]float64, limit int64) []model.ScoredEntry {
	entries := make([]model.ScoredEntry, 0, len(scores))
	for member, score := range scores {
		entries = append(entries, model.ScoredEntry{Member: member, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Member > entries[j].Member
	})
	if limit > 0 && int64(len(entries)) > limit {
		entries = entries[:limit]
	}
	return entries
}

// fakeResultCache CacheDAO的内存实现
type fakeResultCache struct {
	mu      sync.Mutex
	entries map[string][]*model.RecommendedProduct
	hits    int
}

func newFakeResultCache() *fakeResultCache {
	return &fakeResultCache{entries: make(map[string][]*model.RecommendedProduct)}
}

func (f *fakeResultCache) GetRecommendations(ctx context.Context, key string) ([]*model.RecommendedProduct, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs, ok := f.entries[key]
	if ok {
		f.hits++
	}
	return recs, ok
}

func (f *fakeResultCache) SetRecommendations(ctx context.Context, key string, recs []*model.RecommendedProduct, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := make([]*model.RecommendedProduct, len(recs))
	for i, rec := range recs {
		clone := *rec
		stored[i] = &clone
	}
	f.entries[key] = stored
	return nil
}

// fakeArchive ArchiveDAO的内存实现
type fakeArchive struct {
	mu      sync.Mutex
	records []*model.InteractionRecord
}

func (f *fakeArchive) CreateRecord(ctx context.Context, record *model.InteractionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeArchive) GetUserStats(ctx context.Context, userID string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := make(map[string]int64)
	for _, r := range f.records {
		if r.UserID == userID {
			stats[r.InteractionType]++
		}
	}
	return stats, nil
}

func (f *fakeArchive) CleanOldRecords(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}
