package model

import "testing"

func TestValidateInteractionType(t *testing.T) {
	valid := []string{
		InteractionTypeView,
		InteractionTypeAddToCart,
		InteractionTypeWishlist,
		InteractionTypePurchase,
		InteractionTypeReview,
	}
	for _, it := range valid {
		if err := ValidateInteractionType(it); err != nil {
			t.Errorf("%s应为合法类型: %v", it, err)
		}
	}

	for _, it := range []string{"", "click", "VIEW"} {
		if err := ValidateInteractionType(it); err == nil {
			t.Errorf("%q应为非法类型", it)
		}
	}
}

func TestRedisKeys(t *testing.T) {
	cases := []struct {
		got      string
		expected string
	}{
		{KeyUserInteractions("u1"), "interactions:u1"},
		{KeyCoOccurrence("p1"), "co_occurrence:p1"},
		{KeyUserProfile("u1"), "user_profile:u1"},
		{KeyUserCategories("u1"), "user_profile:u1:categories"},
		{KeyPurchased("u1"), "purchased:u1"},
		{KeyProductMeta("p1"), "product:p1"},
		{KeyCategoryProducts("c1"), "category:c1:products"},
		{KeyCategoryPopular("c1"), "category:c1:popular"},
		{CacheKeyPersonalized("u1"), "recommendations:personalized:u1"},
		{CacheKeySimilar("p1"), "recommendations:similar:p1"},
	}
	for _, tc := range cases {
		if tc.got != tc.expected {
			t.Errorf("键 = %q, 期望 %q", tc.got, tc.expected)
		}
	}
}

func TestTrackOutcomeAllSucceeded(t *testing.T) {
	outcome := &TrackOutcome{LogAppended: true, PopularityUpdated: true, CoOccurrenceUpdated: true, ProfileUpdated: true}
	if !outcome.AllSucceeded() {
		t.Error("所有步骤成功时AllSucceeded应为true")
	}
	outcome.PopularityUpdated = false
	if outcome.AllSucceeded() {
		t.Error("存在失败步骤时AllSucceeded应为false")
	}
}
