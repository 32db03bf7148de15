package service

import (
	"context"
	"testing"
	"time"

	"ecommerce-reco/apps/recommendation-service/model"
	"ecommerce-reco/pkg/config"
)

func newTestService(store *fakeSignalStore) (*Service, *fakeResultCache) {
	cache := newFakeResultCache()
	cfg := config.RecommendConfig{
		CacheTTL:             time.Hour,
		TrendingCacheTTL:     5 * time.Minute,
		MinInteractionsForCF: 5,
		InteractionWeights:   config.DefaultInteractionWeights(),
	}
	return NewService(store, cache, nil, cfg, nil), cache
}

func seedInteraction(store *fakeSignalStore, userID, productID, interactionType string, score float64) {
	store.interactions[userID] = append([]*model.Interaction{{
		ProductID: productID,
		Type:      interactionType,
		Score:     score,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}}, store.interactions[userID]...)
}

func TestTrackInteraction_InteractionWeights(t *testing.T) {
	store := newFakeSignalStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	// 每种交互类型按各自权重累加热度
	cases := []struct {
		interactionType string
		expectedWeight  float64
	}{
		{model.InteractionTypeView, 1},
		{model.InteractionTypeWishlist, 2},
		{model.InteractionTypeAddToCart, 3},
		{model.InteractionTypeReview, 4},
		{model.InteractionTypePurchase, 5},
	}
	for i, tc := range cases {
		productID := "product-" + tc.interactionType
		userID := "user-" + string(rune('a'+i))
		if _, err := svc.TrackInteraction(ctx, userID, productID, tc.interactionType, nil); err != nil {
			t.Fatalf("TrackInteraction失败: %v", err)
		}
		if got := store.popularity[productID]; got != tc.expectedWeight {
			t.Errorf("%s热度 = %v, 期望 %v", tc.interactionType, got, tc.expectedWeight)
		}
	}
}

func TestTrackInteraction_PopularityAccumulates(t *testing.T) {
	store := newFakeSignalStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	for _, userID := range []string{"u1", "u2", "u3"} {
		if _, err := svc.TrackInteraction(ctx, userID, "p1", model.InteractionTypePurchase, nil); err != nil {
			t.Fatalf("TrackInteraction失败: %v", err)
		}
	}

	if got := store.popularity["p1"]; got != 15 {
		t.Errorf("3次购买后热度 = %v, 期望 15", got)
	}
}

func TestTrackInteraction_CoOccurrenceSymmetry(t *testing.T) {
	store := newFakeSignalStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	svc.TrackInteraction(ctx, "u1", "p1", model.InteractionTypePurchase, nil)
	svc.TrackInteraction(ctx, "u1", "p2", model.InteractionTypePurchase, nil)

	if got := store.coOccurrence["p1"]["p2"]; got != 1 {
		t.Errorf("co(p1,p2) = %v, 期望 1", got)
	}
	if got := store.coOccurrence["p2"]["p1"]; got != 1 {
		t.Errorf("co(p2,p1) = %v, 期望 1", got)
	}
}

func TestTrackInteraction_PartialFailure(t *testing.T) {
	store := newFakeSignalStore()
	store.failPopularity = true
	svc, _ := newTestService(store)

	outcome, err := svc.TrackInteraction(context.Background(), "u1", "p1", model.InteractionTypeView, nil)
	if err != nil {
		t.Fatalf("单步失败不应返回错误: %v", err)
	}
	if !outcome.LogAppended {
		t.Error("日志写入应成功")
	}
	if outcome.PopularityUpdated {
		t.Error("热度更新应失败")
	}
	if !outcome.CoOccurrenceUpdated || !outcome.ProfileUpdated {
		t.Error("共现与画像更新应成功")
	}
	if outcome.AllSucceeded() {
		t.Error("AllSucceeded应为false")
	}
}

func TestTrackInteraction_Validation(t *testing.T) {
	store := newFakeSignalStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	if _, err := svc.TrackInteraction(ctx, "", "p1", model.InteractionTypeView, nil); err == nil {
		t.Error("空用户ID应返回错误")
	}
	if _, err := svc.TrackInteraction(ctx, "u1", "", model.InteractionTypeView, nil); err == nil {
		t.Error("空商品ID应返回错误")
	}
	if _, err := svc.TrackInteraction(ctx, "u1", "p1", "unknown", nil); err == nil {
		t.Error("非法交互类型应返回错误")
	}
}

func TestPersonalized_ColdStartFallsBackToTrending(t *testing.T) {
	store := newFakeSignalStore()
	store.popularity["hot1"] = 10
	store.popularity["hot2"] = 5
	svc, cache := newTestService(store)

	recs := svc.GetPersonalizedRecommendations(context.Background(), "newcomer", 10, true)

	if len(recs) != 2 {
		t.Fatalf("结果数量 = %d, 期望 2", len(recs))
	}
	if recs[0].ProductID != "hot1" || recs[1].ProductID != "hot2" {
		t.Errorf("结果顺序 = [%s %s], 期望 [hot1 hot2]", recs[0].ProductID, recs[1].ProductID)
	}
	for _, rec := range recs {
		if rec.Reason != model.ReasonTrending {
			t.Errorf("理由 = %q, 期望 %q", rec.Reason, model.ReasonTrending)
		}
	}
	// 冷启动结果不写个性化缓存
	if _, ok := cache.entries[model.CacheKeyPersonalized("newcomer")]; ok {
		t.Error("冷启动不应写个性化缓存")
	}
}

func TestPersonalized_ExcludesPurchased(t *testing.T) {
	store := newFakeSignalStore()
	seedInteraction(store, "buyer", "p1", model.InteractionTypeView, 1)
	store.coOccurrence["p1"] = map[string]float64{"p2": 2}
	store.purchased["buyer"] = map[string]struct{}{"p2": {}}
	svc, _ := newTestService(store)

	recs := svc.GetPersonalizedRecommendations(context.Background(), "buyer", 10, true)
	for _, rec := range recs {
		if rec.ProductID == "p2" {
			t.Error("已购商品p2不应出现在结果中")
		}
	}
}

func TestPersonalized_KeepsPurchasedWhenNotExcluded(t *testing.T) {
	store := newFakeSignalStore()
	seedInteraction(store, "buyer", "p1", model.InteractionTypeView, 1)
	store.coOccurrence["p1"] = map[string]float64{"p2": 2}
	store.purchased["buyer"] = map[string]struct{}{"p2": {}}
	svc, _ := newTestService(store)

	recs := svc.GetPersonalizedRecommendations(context.Background(), "buyer", 10, false)
	found := false
	for _, rec := range recs {
		if rec.ProductID == "p2" {
			found = true
		}
	}
	if !found {
		t.Error("不排除已购时p2应出现在结果中")
	}
}

func TestPersonalized_ReasonFirstSignalWins(t *testing.T) {
	store := newFakeSignalStore()
	// 5次浏览同一商品：内容信号与协同过滤都会命中邻居x
	for i := 0; i < 5; i++ {
		seedInteraction(store, "fan", "a", model.InteractionTypeView, 1)
	}
	store.coOccurrence["a"] = map[string]float64{"x": 2}
	svc, _ := newTestService(store)

	recs := svc.GetPersonalizedRecommendations(context.Background(), "fan", 10, true)
	if len(recs) != 1 {
		t.Fatalf("结果数量 = %d, 期望 1", len(recs))
	}
	rec := recs[0]
	if rec.ProductID != "x" {
		t.Fatalf("商品 = %s, 期望 x", rec.ProductID)
	}
	// 理由保持第一个信号的，后续信号只叠加分数：
	// 内容信号首次插入2分，其余4条日志各叠加2*0.5，协同过滤再叠加2*1
	if rec.Reason != model.ReasonSimilarToViewed {
		t.Errorf("理由 = %q, 期望 %q", rec.Reason, model.ReasonSimilarToViewed)
	}
	if rec.Score != 8 {
		t.Errorf("分数 = %v, 期望 8", rec.Score)
	}
}

func TestPersonalized_CacheIdempotent(t *testing.T) {
	store := newFakeSignalStore()
	seedInteraction(store, "u1", "p1", model.InteractionTypeView, 1)
	store.coOccurrence["p1"] = map[string]float64{"p2": 3}
	svc, cache := newTestService(store)
	ctx := context.Background()

	first := svc.GetPersonalizedRecommendations(ctx, "u1", 10, true)
	// 底层信号变化后命中缓存，结果不变
	store.coOccurrence["p1"]["p9"] = 100
	second := svc.GetPersonalizedRecommendations(ctx, "u1", 10, true)

	if cache.hits == 0 {
		t.Error("第二次调用应命中缓存")
	}
	if len(first) != len(second) {
		t.Fatalf("两次结果数量不一致: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ProductID != second[i].ProductID || first[i].Score != second[i].Score {
			t.Errorf("第%d项不一致: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCollaborativeFiltering_ColdStartGuard(t *testing.T) {
	store := newFakeSignalStore()
	// 4次交互，低于协同过滤的最小交互数
	for _, pid := range []string{"p1", "p2", "p3", "p4"} {
		seedInteraction(store, "u1", pid, model.InteractionTypeView, 1)
	}
	store.coOccurrence["p1"] = map[string]float64{"p9": 5}
	svc, _ := newTestService(store)

	recs := svc.collaborativeFiltering(context.Background(), "u1", 10)
	if len(recs) != 0 {
		t.Errorf("交互不足时协同过滤应为空, 实际 %d 条", len(recs))
	}
}

func TestCollaborativeFiltering_SkipsSeenProducts(t *testing.T) {
	store := newFakeSignalStore()
	for _, pid := range []string{"p1", "p2", "p3", "p4", "p5"} {
		seedInteraction(store, "u1", pid, model.InteractionTypeView, 1)
	}
	store.coOccurrence["p1"] = map[string]float64{"p2": 9, "p9": 3}
	svc, _ := newTestService(store)

	recs := svc.collaborativeFiltering(context.Background(), "u1", 10)
	if len(recs) != 1 {
		t.Fatalf("结果数量 = %d, 期望 1", len(recs))
	}
	if recs[0].ProductID != "p9" {
		t.Errorf("商品 = %s, 期望 p9（已交互商品p2应被跳过）", recs[0].ProductID)
	}
	if recs[0].Reason != model.ReasonCollaborative {
		t.Errorf("理由 = %q, 期望 %q", recs[0].Reason, model.ReasonCollaborative)
	}
}

func TestSimilar_CategoryFallback(t *testing.T) {
	store := newFakeSignalStore()
	ctx := context.Background()
	for _, pid := range []string{"p1", "p2", "p3"} {
		store.UpsertProductMetadata(ctx, &model.ProductMetadata{ProductID: pid, CategoryID: "c1"})
	}
	svc, _ := newTestService(store)

	recs := svc.GetSimilarProducts(ctx, "p1", 5)
	if len(recs) != 2 {
		t.Fatalf("结果数量 = %d, 期望 2", len(recs))
	}
	if recs[0].ProductID != "p2" || recs[1].ProductID != "p3" {
		t.Errorf("结果 = [%s %s], 期望 [p2 p3]", recs[0].ProductID, recs[1].ProductID)
	}
	for _, rec := range recs {
		if rec.Score != model.CategorySiblingScore {
			t.Errorf("同类目兜底分数 = %v, 期望 %v", rec.Score, model.CategorySiblingScore)
		}
		if rec.Reason != model.ReasonSameCategory {
			t.Errorf("理由 = %q, 期望 %q", rec.Reason, model.ReasonSameCategory)
		}
	}
}

func TestSimilar_CoOccurrenceBeforeCategory(t *testing.T) {
	store := newFakeSignalStore()
	ctx := context.Background()
	store.coOccurrence["p1"] = map[string]float64{"p9": 4}
	for _, pid := range []string{"p1", "p2"} {
		store.UpsertProductMetadata(ctx, &model.ProductMetadata{ProductID: pid, CategoryID: "c1"})
	}
	svc, _ := newTestService(store)

	recs := svc.GetSimilarProducts(ctx, "p1", 5)
	if len(recs) != 2 {
		t.Fatalf("结果数量 = %d, 期望 2", len(recs))
	}
	// 共现信号分数高，排在同类目兜底前面
	if recs[0].ProductID != "p9" || recs[0].Reason != model.ReasonBoughtTogether {
		t.Errorf("首位 = %s(%s), 期望 p9(%s)", recs[0].ProductID, recs[0].Reason, model.ReasonBoughtTogether)
	}
	if recs[1].ProductID != "p2" || recs[1].Reason != model.ReasonSameCategory {
		t.Errorf("次位 = %s(%s), 期望 p2(%s)", recs[1].ProductID, recs[1].Reason, model.ReasonSameCategory)
	}
}

func TestTrending_CachedSnapshot(t *testing.T) {
	store := newFakeSignalStore()
	store.popularity["p1"] = 10
	svc, _ := newTestService(store)
	ctx := context.Background()

	first := svc.GetTrendingProducts(ctx, 10)
	store.popularity["p2"] = 99
	second := svc.GetTrendingProducts(ctx, 10)

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("缓存期内结果应保持不变: %d vs %d", len(first), len(second))
	}
	if second[0].ProductID != "p1" {
		t.Errorf("缓存期内榜首 = %s, 期望 p1", second[0].ProductID)
	}
}

func TestRecentlyViewed_DedupNewestFirst(t *testing.T) {
	store := newFakeSignalStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	for _, pid := range []string{"p1", "p2", "p3"} {
		svc.TrackInteraction(ctx, "u1", pid, model.InteractionTypeView, nil)
	}
	// 购买不算浏览
	svc.TrackInteraction(ctx, "u1", "p4", model.InteractionTypePurchase, nil)
	// 重复浏览只保留最新位置
	svc.TrackInteraction(ctx, "u1", "p2", model.InteractionTypeView, nil)

	recs := svc.GetRecentlyViewed(ctx, "u1", 10)
	expected := []string{"p2", "p3", "p1"}
	if len(recs) != len(expected) {
		t.Fatalf("结果数量 = %d, 期望 %d", len(recs), len(expected))
	}
	for i, pid := range expected {
		if recs[i].ProductID != pid {
			t.Errorf("第%d位 = %s, 期望 %s", i, recs[i].ProductID, pid)
		}
		if recs[i].Reason != model.ReasonRecentlyViewed {
			t.Errorf("理由 = %q, 期望 %q", recs[i].Reason, model.ReasonRecentlyViewed)
		}
	}
}

func TestFrequentlyBoughtTogether_AggregatesCoOccurrence(t *testing.T) {
	store := newFakeSignalStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	// 3个用户都先买p1再买p2
	for _, userID := range []string{"u1", "u2", "u3"} {
		svc.TrackInteraction(ctx, userID, "p1", model.InteractionTypePurchase, nil)
		svc.TrackInteraction(ctx, userID, "p2", model.InteractionTypePurchase, nil)
	}

	recs := svc.GetFrequentlyBoughtTogether(ctx, []string{"p1"}, 5)
	if len(recs) != 1 {
		t.Fatalf("结果数量 = %d, 期望 1", len(recs))
	}
	if recs[0].ProductID != "p2" || recs[0].Score != 3 {
		t.Errorf("结果 = %s(%v), 期望 p2(3)", recs[0].ProductID, recs[0].Score)
	}
	if recs[0].Reason != model.ReasonBoughtTogether {
		t.Errorf("理由 = %q, 期望 %q", recs[0].Reason, model.ReasonBoughtTogether)
	}
}

func TestFrequentlyBoughtTogether_ExcludesInputs(t *testing.T) {
	store := newFakeSignalStore()
	store.coOccurrence["p1"] = map[string]float64{"p2": 5, "p3": 2}
	svc, _ := newTestService(store)

	recs := svc.GetFrequentlyBoughtTogether(context.Background(), []string{"p1", "p2"}, 5)
	for _, rec := range recs {
		if rec.ProductID == "p1" || rec.ProductID == "p2" {
			t.Errorf("输入商品%s不应出现在结果中", rec.ProductID)
		}
	}
	if len(recs) != 1 || recs[0].ProductID != "p3" {
		t.Errorf("结果应只有p3, 实际 %d 条", len(recs))
	}
}

func TestGetUserStats_FromArchive(t *testing.T) {
	store := newFakeSignalStore()
	archive := &fakeArchive{}
	cache := newFakeResultCache()
	cfg := config.RecommendConfig{
		CacheTTL:             time.Hour,
		TrendingCacheTTL:     5 * time.Minute,
		MinInteractionsForCF: 5,
		InteractionWeights:   config.DefaultInteractionWeights(),
	}
	svc := NewService(store, cache, archive, cfg, nil)
	ctx := context.Background()

	archive.CreateRecord(ctx, &model.InteractionRecord{UserID: "u1", ProductID: "p1", InteractionType: model.InteractionTypeView, Weight: 1})
	archive.CreateRecord(ctx, &model.InteractionRecord{UserID: "u1", ProductID: "p2", InteractionType: model.InteractionTypeView, Weight: 1})
	archive.CreateRecord(ctx, &model.InteractionRecord{UserID: "u1", ProductID: "p1", InteractionType: model.InteractionTypePurchase, Weight: 5})

	stats, err := svc.GetUserStats(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserStats失败: %v", err)
	}
	if stats[model.InteractionTypeView] != 2 || stats[model.InteractionTypePurchase] != 1 {
		t.Errorf("统计 = %v, 期望 view:2 purchase:1", stats)
	}
}

func TestTrackInteraction_ArchivesAsync(t *testing.T) {
	store := newFakeSignalStore()
	archive := &fakeArchive{}
	cache := newFakeResultCache()
	cfg := config.RecommendConfig{
		CacheTTL:             time.Hour,
		TrendingCacheTTL:     5 * time.Minute,
		MinInteractionsForCF: 5,
		InteractionWeights:   config.DefaultInteractionWeights(),
	}
	svc := NewService(store, cache, archive, cfg, nil)

	if _, err := svc.TrackInteraction(context.Background(), "u1", "p1", model.InteractionTypePurchase, nil); err != nil {
		t.Fatalf("TrackInteraction失败: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		archive.mu.Lock()
		n := len(archive.records)
		archive.mu.Unlock()
		if n == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("归档记录未在期限内写入")
}
